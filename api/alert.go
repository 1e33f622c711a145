package api

// Alert interface is used to notify an operator when a run fails in a way that needs attention
type Alert interface {
	Trigger(description string, details interface{}) error
}
