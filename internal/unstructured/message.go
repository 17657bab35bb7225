package unstructured

import (
	"fmt"
	"strings"

	"github.com/loglens/irview/internal/ir"
)

// reconstructMessage scans the logtype left to right and substitutes each
// placeholder with the next unconsumed variable of the matching kind.
// Literal runs are copied verbatim; a backslash escapes the following byte.
// A placeholder with no remaining variable is a decoding error.
func reconstructMessage(logtype []byte, intVars []int32, floatVars []uint32, dictVars []string) (string, error) {
	var b strings.Builder
	b.Grow(len(logtype) * 2)

	var nextInt, nextFloat, nextDict int
	for i := 0; i < len(logtype); i++ {
		c := logtype[i]
		switch c {
		case ir.PlaceholderEscape:
			if i == len(logtype)-1 {
				return "", fmt.Errorf("%w: dangling escape at end of logtype", ir.ErrDecoding)
			}
			i++
			b.WriteByte(logtype[i])
		case ir.PlaceholderInt:
			if nextInt >= len(intVars) {
				return "", fmt.Errorf("%w: logtype references %d integer variables, record has %d",
					ir.ErrDecoding, nextInt+1, len(intVars))
			}
			b.WriteString(ir.DecodeIntegerVar(intVars[nextInt]))
			nextInt++
		case ir.PlaceholderFloat:
			if nextFloat >= len(floatVars) {
				return "", fmt.Errorf("%w: logtype references %d float variables, record has %d",
					ir.ErrDecoding, nextFloat+1, len(floatVars))
			}
			b.WriteString(ir.DecodeFloatVar(floatVars[nextFloat]))
			nextFloat++
		case ir.PlaceholderDict:
			if nextDict >= len(dictVars) {
				return "", fmt.Errorf("%w: logtype references %d dictionary variables, record has %d",
					ir.ErrDecoding, nextDict+1, len(dictVars))
			}
			b.WriteString(dictVars[nextDict])
			nextDict++
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// detectLevel scans the message body for a recognized level label placed
// immediately after the leading delimiter character. First match wins; no
// match means level "none". Messages whose text merely happens to start
// with a level name are misclassified; that is a known approximation.
func detectLevel(body string) int {
	if len(body) < 2 {
		return ir.LevelNone
	}
	after := body[1:]
	for i := 1; i < len(ir.LevelNames); i++ {
		if strings.HasPrefix(after, ir.LevelNames[i]) {
			return i
		}
	}
	return ir.LevelNone
}
