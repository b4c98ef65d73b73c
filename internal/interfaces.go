package internal

import (
	"context"

	"github.com/IBM/fp-go/v2/ioeither"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/normalize"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/sheet"
)

type RegistryInterface interface {
	AccessToken(ctx context.Context) (string, error)
	FetchBiblio(ctx context.Context, id normalize.Identifier, ref string) ioeither.IOEither[error, []byte]
}

type BuilderInterface interface {
	BuildPatent(ctx context.Context, id normalize.Identifier, ref string, raw []byte) (models.Patent, error)
}

type RunnerInterface interface {
	Run(ctx context.Context, cases []sheet.Case) ([]models.Patent, error)
	ParseDir(ctx context.Context, dir string) ([]models.Patent, error)
}

type SheetWriterInterface interface {
	Write(patents []models.Patent, parties []*models.Party) (sheet.Report, error)
}
