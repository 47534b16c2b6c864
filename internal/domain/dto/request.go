package dto

// AddItemRequest is the payload for POST /cart/add.
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest is the payload for PUT /cart/update.
type UpdateItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// RemoveItemRequest is the payload for POST /cart/remove.
type RemoveItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}
