package server

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/ruhidibadli/ucuzbot/internal/aggregator"
	"github.com/ruhidibadli/ucuzbot/internal/client"
	"github.com/ruhidibadli/ucuzbot/internal/database"
)

type Server struct {
	DB            database.Database
	Client        client.Client
	Engine        aggregator.Engine
	Eval          *EvalGate
	Logger        logger
	AuthSecretKey jwk.Key
	AdminEmail    string
	CheckInterval time.Duration
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
