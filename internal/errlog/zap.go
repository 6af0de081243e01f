package errlog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	reqid "github.com/hanpama/resolverlog/internal/reqid"
)

type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger logs resolver errors at error level. Annotated errors are
// written with their annotation as the message, the field coordinate, and
// the cause; the request id is attached when ctx carries one.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l.WithOptions(zap.AddCallerSkip(1))}
}

func (z *zapLogger) Log(ctx context.Context, err error) {
	msg := err.Error()
	fields := make([]zap.Field, 0, 3)

	var rerr *Error
	if errors.As(err, &rerr) {
		msg = rerr.Message()
		if rerr.Hint() != "" {
			fields = append(fields, zap.String("graphql.field", rerr.Hint()))
		}
		fields = append(fields, zap.Error(rerr.Cause()))
	} else {
		fields = append(fields, zap.Error(err))
	}
	if rid, ok := reqid.FromContext(ctx); ok {
		fields = append(fields, reqid.Field(rid))
	}
	z.l.Error(msg, fields...)
}
