package interp

import "fmt"

// FaultCode identifies a runtime failure of evaluated code.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultTypeMismatch FaultCode = 2001 // IG2001: operand types do not match
	FaultUnmapped     FaultCode = 2002 // IG2002: access to an unknown location
	FaultDivByZero    FaultCode = 2003 // IG2003: integer division by zero
	FaultThrown       FaultCode = 2004 // IG2004: a throw statement ran
	FaultBadOperand   FaultCode = 2005 // IG2005: operand of the wrong category
)

// String returns the code as "IG2001" format.
func (c FaultCode) String() string {
	return fmt.Sprintf("IG%d", c)
}

// Fault is a failure of the evaluated program, as opposed to a gap in the
// evaluator itself.
type Fault struct {
	Code    FaultCode
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %s: %s", f.Code, f.Message)
}

func faultf(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}
