package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorReset   = "\x1b[0m"
)

var bufferPool = buffer.NewPool()

// consoleEncoder renders entries as
//
//	<time> [LEVEL] [component:<name>] message key=value ...
//
// using the "customlevel" field injected by Logger.log so SUCCESS and FAIL
// keep their own prefix and color even though zap has no such levels.
type consoleEncoder struct {
	zapcore.EncoderConfig
	colors bool
	fields []zapcore.Field
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, colors bool) zapcore.Encoder {
	return &consoleEncoder{EncoderConfig: cfg, colors: colors}
}

// Clone implements zapcore.Encoder.
func (enc *consoleEncoder) Clone() zapcore.Encoder {
	clone := &consoleEncoder{EncoderConfig: enc.EncoderConfig, colors: enc.colors}
	clone.fields = append(clone.fields, enc.fields...)
	return clone
}

// With-context fields arrive through the Add* methods; only the types our
// Logger actually emits are retained, everything else is stringified.
func (enc *consoleEncoder) addField(f zapcore.Field) { enc.fields = append(enc.fields, f) }

func (enc *consoleEncoder) AddString(key, val string) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.StringType, String: val})
}
func (enc *consoleEncoder) AddBool(key string, val bool) {
	var i int64
	if val {
		i = 1
	}
	enc.addField(zapcore.Field{Key: key, Type: zapcore.BoolType, Integer: i})
}
func (enc *consoleEncoder) AddInt64(key string, val int64) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.Int64Type, Integer: val})
}
func (enc *consoleEncoder) AddInt(key string, val int)     { enc.AddInt64(key, int64(val)) }
func (enc *consoleEncoder) AddInt32(key string, val int32) { enc.AddInt64(key, int64(val)) }
func (enc *consoleEncoder) AddInt16(key string, val int16) { enc.AddInt64(key, int64(val)) }
func (enc *consoleEncoder) AddInt8(key string, val int8)   { enc.AddInt64(key, int64(val)) }
func (enc *consoleEncoder) AddUint64(key string, val uint64) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.Uint64Type, Integer: int64(val)})
}
func (enc *consoleEncoder) AddUint(key string, val uint)       { enc.AddUint64(key, uint64(val)) }
func (enc *consoleEncoder) AddUint32(key string, val uint32)   { enc.AddUint64(key, uint64(val)) }
func (enc *consoleEncoder) AddUint16(key string, val uint16)   { enc.AddUint64(key, uint64(val)) }
func (enc *consoleEncoder) AddUint8(key string, val uint8)     { enc.AddUint64(key, uint64(val)) }
func (enc *consoleEncoder) AddUintptr(key string, val uintptr) { enc.AddUint64(key, uint64(val)) }
func (enc *consoleEncoder) AddFloat64(key string, val float64) {
	enc.AddString(key, fmt.Sprintf("%g", val))
}
func (enc *consoleEncoder) AddFloat32(key string, val float32) { enc.AddFloat64(key, float64(val)) }
func (enc *consoleEncoder) AddDuration(key string, val time.Duration) {
	enc.AddString(key, val.String())
}
func (enc *consoleEncoder) AddTime(key string, val time.Time) {
	enc.AddString(key, val.Format(time.RFC3339))
}
func (enc *consoleEncoder) AddByteString(key string, val []byte) { enc.AddString(key, string(val)) }
func (enc *consoleEncoder) AddBinary(key string, val []byte)     { enc.AddString(key, string(val)) }
func (enc *consoleEncoder) AddComplex128(key string, val complex128) {
	enc.AddString(key, fmt.Sprintf("%v", val))
}
func (enc *consoleEncoder) AddComplex64(key string, val complex64) {
	enc.AddString(key, fmt.Sprintf("%v", val))
}
func (enc *consoleEncoder) AddReflected(key string, obj interface{}) error {
	enc.AddString(key, fmt.Sprintf("%v", obj))
	return nil
}
func (enc *consoleEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error   { return nil }
func (enc *consoleEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error { return nil }
func (enc *consoleEncoder) OpenNamespace(key string)                                {}

// EncodeEntry implements zapcore.Encoder.
func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufferPool.Get()

	if enc.TimeKey != "" {
		line.AppendString(ent.Time.Format(time.RFC3339))
		line.AppendString(" ")
	}

	all := make([]zapcore.Field, 0, len(enc.fields)+len(fields))
	all = append(all, enc.fields...)
	all = append(all, fields...)

	levelText := strings.ToUpper(ent.Level.String())
	rest := all[:0]
	for _, f := range all {
		if f.Key == "customlevel" && f.Type == zapcore.StringType {
			levelText = f.String
			continue
		}
		rest = append(rest, f)
	}

	prefix := "[" + levelText + "]"
	if enc.colors {
		prefix = colorizeLevel(levelText, prefix)
	}
	line.AppendString(prefix)
	line.AppendString(" ")

	line.AppendString(ent.Message)

	for _, f := range rest {
		line.AppendString(" ")
		line.AppendString(f.Key)
		line.AppendString("=")
		switch f.Type {
		case zapcore.StringType:
			if f.String == "" || strings.Contains(f.String, " ") {
				fmt.Fprintf(line, "%q", f.String)
			} else {
				line.AppendString(f.String)
			}
		case zapcore.BoolType:
			line.AppendBool(f.Integer == 1)
		case zapcore.Int64Type:
			line.AppendInt(f.Integer)
		case zapcore.Uint64Type:
			line.AppendUint(uint64(f.Integer))
		case zapcore.ErrorType:
			if f.Interface != nil {
				fmt.Fprintf(line, "%q", f.Interface.(error).Error())
			} else {
				line.AppendString("nil")
			}
		default:
			fmt.Fprintf(line, "%v", f.Interface)
		}
	}

	line.AppendString(enc.LineEnding)
	if enc.LineEnding == "" {
		line.AppendString(zapcore.DefaultLineEnding)
	}
	return line, nil
}

func colorizeLevel(level, text string) string {
	switch level {
	case "DEBUG":
		return colorMagenta + text + colorReset
	case "SUCCESS":
		return colorGreen + text + colorReset
	case "WARN":
		return colorYellow + text + colorReset
	case "ERROR", "FAIL", "FATAL":
		return colorRed + text + colorReset
	case "PANIC":
		return colorCyan + text + colorReset
	default:
		return text
	}
}
