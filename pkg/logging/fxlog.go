package logging

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// UseLoggingInterface routes fx's own event stream through the
// logging.Interface provided inside the app being built.
var UseLoggingInterface fx.Option = fx.WithLogger(
	func(logger Interface) fxevent.Logger {
		return &fxEventLogger{log: logger.WithField("source", "fx")}
	},
)

type fxEventLogger struct {
	log Interface
}

func (f *fxEventLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		f.log.WithField("hook", e.FunctionName).Info("running OnStart hook")
	case *fxevent.OnStartExecuted:
		f.outcome("OnStart hook", e.Err,
			f.log.WithField("hook", e.FunctionName).WithField("runtime", e.Runtime.String()))
	case *fxevent.OnStopExecuting:
		f.log.WithField("hook", e.FunctionName).Info("running OnStop hook")
	case *fxevent.OnStopExecuted:
		f.outcome("OnStop hook", e.Err,
			f.log.WithField("hook", e.FunctionName).WithField("runtime", e.Runtime.String()))
	case *fxevent.Supplied:
		f.outcome("supply "+e.TypeName, e.Err, f.log)
	case *fxevent.Provided:
		for _, typeName := range e.OutputTypeNames {
			f.log.WithField("constructor", e.ConstructorName).
				WithField("type", typeName).
				Info("provided")
		}
		if e.Err != nil {
			f.log.WithError(e.Err).Error("provide failed")
		}
	case *fxevent.Invoking:
		f.log.WithField("function", e.FunctionName).Info("invoking")
	case *fxevent.Invoked:
		if e.Err != nil {
			f.log.WithError(e.Err).
				WithField("function", e.FunctionName).
				WithField("stack", e.Trace).
				Error("invoke failed")
		}
	case *fxevent.Stopping:
		f.log.WithField("signal", strings.ToUpper(e.Signal.String())).Info("stopping on signal")
	case *fxevent.Stopped:
		f.outcome("stop", e.Err, f.log)
	case *fxevent.RollingBack:
		f.log.WithError(e.StartErr).Error("start failed, rolling back")
	case *fxevent.RolledBack:
		f.outcome("rollback", e.Err, f.log)
	case *fxevent.Started:
		f.outcome("start", e.Err, f.log)
	case *fxevent.LoggerInitialized:
		f.outcome("logger initialization", e.Err, f.log.WithField("constructor", e.ConstructorName))
	}
}

func (f *fxEventLogger) outcome(what string, err error, log Interface) {
	if err != nil {
		log.WithError(err).Error(what + " failed")
		return
	}
	log.Info(what + " succeeded")
}
