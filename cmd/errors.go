package cmd

import "errors"

var errNoParseDir = errors.New("parse: --dir or register.dump_dir is required")
