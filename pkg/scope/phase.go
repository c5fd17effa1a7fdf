package scope

//go:generate go run github.com/dmarkham/enumer -type Phase -trimprefix Phase -transform lower -output phase.gen.go

// Phase is the lifecycle position of one scoped transaction.
//
//	Start -> BindingSet -> OperationExecuting -> Committed
//	                                          \-> RolledBack
//
// Any phase after Start may end in RolledBack.
type Phase int

const (
	// PhaseStart covers opening the transaction and binding the identity
	PhaseStart Phase = iota
	// PhaseBindingSet means the identity is bound and visible to policies
	PhaseBindingSet
	// PhaseOperationExecuting covers the single guarded operation and commit
	PhaseOperationExecuting
	PhaseCommitted
	PhaseRolledBack
)

// Terminal reports whether the transaction has ended
func (p Phase) Terminal() bool {
	return p == PhaseCommitted || p == PhaseRolledBack
}
