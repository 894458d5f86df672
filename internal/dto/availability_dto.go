package dto

// DemandLineRequest is one (item, quantity) requirement in a check request.
type DemandLineRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CheckAvailabilityRequest asks whether a warehouse can satisfy a demand set.
type CheckAvailabilityRequest struct {
	WarehouseID string              `json:"warehouse_id" validate:"required,uuid"`
	Lines       []DemandLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// LineAvailability is the advisory per-line answer. Status is one of
// "sufficient", "insufficient", "no_record".
type LineAvailability struct {
	ItemID    string `json:"item_id"`
	Requested int    `json:"requested"`
	OnHand    int    `json:"on_hand"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
	Status    string `json:"status"`
}

// CheckAvailabilityResponse aggregates per-line answers; AllSufficient is the
// all-or-nothing gate a confirm would apply.
type CheckAvailabilityResponse struct {
	WarehouseID   string             `json:"warehouse_id"`
	AllSufficient bool               `json:"all_sufficient"`
	Lines         []LineAvailability `json:"lines"`
}
