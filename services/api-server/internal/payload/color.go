package payload

type ColorRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=50"`
	Hex  *string `json:"hex"  validate:"omitempty,hexcolor"`
}
