package odata

// Method identifies the write operation a request body is serialized for.
type Method string

const (
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodMerge  Method = "MERGE"
	MethodDelete Method = "DELETE"
)

// IsPartial reports whether the method updates only the supplied fields,
// which makes the encoder restrict the schema view to them.
func (m Method) IsPartial() bool {
	return m == MethodPatch || m == MethodMerge
}

// IsConditional reports whether the method is subject to optimistic
// concurrency preconditions on types that require them.
func (m Method) IsConditional() bool {
	switch m {
	case MethodPut, MethodPatch, MethodMerge, MethodDelete:
		return true
	}
	return false
}

type CreateEntityResult struct {
	location string
}

func NewCreateEntityResult(location string) *CreateEntityResult {
	return &CreateEntityResult{
		location: location,
	}
}

func (r CreateEntityResult) Location() string {
	return r.location
}
