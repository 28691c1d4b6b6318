package logger

import "go.uber.org/zap"

var Log *zap.Logger

func Init() {
	Log = zap.Must(zap.NewProduction())
}

func Sugar() *zap.SugaredLogger {
	if Log == nil {
		Log = zap.NewNop()
	}
	return Log.Sugar()
}
