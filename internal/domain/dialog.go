package domain

// DialogStep names the current waiting point of a customer's multi-turn
// conversation.
type DialogStep string

const (
	StepNone            DialogStep = ""
	StepConfirmPhone    DialogStep = "confirm_phone"
	StepAwaitPhone      DialogStep = "await_phone"
	StepConfirmAssembly DialogStep = "confirm_assembly"
)

// DialogState is the explicit finite-state value for an in-flight dialog:
// the current step plus the fields accumulated so far. It is passed into and
// returned from orchestrator calls and persisted between turns by the dialog
// store; abandoning the dialog just lets the stored value expire.
type DialogState struct {
	Step          DialogStep
	Phone         string // candidate phone during checkout
	CartItemID    int64  // assembly confirmation target
	AssemblyPrice int64  // offered add-on price
}
