package scope

//go:generate go run github.com/dmarkham/enumer -type Operation -trimprefix Operation -transform lower -output operation.gen.go

// Operation names the single guarded data operation of a scoped run
type Operation int

const (
	OperationList Operation = iota
	OperationFetch
	OperationCreate
	OperationUpdate
	OperationDelete
	OperationWhoami
)

// Mutates reports whether the operation writes rows
func (o Operation) Mutates() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}
