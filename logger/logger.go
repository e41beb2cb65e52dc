package logger

import (
	"go.uber.org/zap"
)

// Log is a no-op until Init runs, so packages can log safely under test.
var Log = zap.NewNop().Sugar()

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}
