package scheduler

import "aquarium_wot/internal/logger"

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debugw("cron_"+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append([]interface{}{"err", err}, keysAndValues...)
	c.log.Errorw("cron_"+msg, fields...)
}
