package internal

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/batch"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/config"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/register"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/registry"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/sheet"
)

// Services is everything one CLI invocation needs. Parties is shared by the
// builder and the sheet writer so NAME_DATA lists every party of the run.
type Services struct {
	Parties  *register.PartyStore
	Registry RegistryInterface
	Builder  BuilderInterface
	Runner   RunnerInterface
	Sheets   SheetWriterInterface
}

func InitServices(
	cfg config.Config,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Services, error) {
	store := register.NewPartyStore()
	client, err := registry.NewClient(cfg.Register, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	builder, err := register.NewBuilder(store, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	runner, err := batch.NewRunner(client, builder, tracer, logger, meter)
	if err != nil {
		return nil, err
	}
	return &Services{
		Parties:  store,
		Registry: client,
		Builder:  builder,
		Runner:   runner,
		Sheets:   sheet.NewWriter(cfg.Sheet, logger),
	}, nil
}
