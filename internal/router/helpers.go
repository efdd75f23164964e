package router

func (t RequestType) String() string {
	return string(t)
}

// GetDescription returns a human-readable description of the request type.
func (t RequestType) GetDescription() string {
	switch t {
	case TypeConfirmation:
		return "Confirmation of a proposed project plan"
	case TypeProjectCreation:
		return "New project creation"
	case TypeCodeModification:
		return "Modification of existing code"
	case TypeDebugging:
		return "Debugging and fixing"
	case TypeGeneralAssist:
		return "General assistance"
	default:
		return "Unknown request type"
	}
}
