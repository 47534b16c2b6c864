package devgateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/soleshop/cart-sync/internal/domain/dto"
	"github.com/soleshop/cart-sync/internal/middleware"
)

// Handler serves the cart wire contract backed by a CartRepository and a
// seeded catalog.
type Handler struct {
	repo    CartRepository
	catalog *Catalog
}

// NewHandler creates a Handler.
func NewHandler(repo CartRepository, catalog *Catalog) *Handler {
	return &Handler{repo: repo, catalog: catalog}
}

// GetCart handles GET /cart.
func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.loadCart(c)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.respond(c, cart)
}

// AddItem handles POST /cart/add.
func (h *Handler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, h.errorBody(c, dto.ErrCodeInvalidRequest, "productId and a positive quantity are required"))
		return
	}

	product, ok := h.catalog.Get(req.ProductID)
	if !ok || !product.Available {
		c.JSON(http.StatusNotFound, h.errorBody(c, dto.ErrCodeNotFound, "Product not found"))
		return
	}

	cart, err := h.loadCart(c)
	if err != nil {
		h.internalError(c, err)
		return
	}

	requested := req.Quantity
	if item := cart.Item(req.ProductID); item != nil {
		requested += item.Quantity
	}
	if requested > product.Stock {
		c.JSON(http.StatusConflict, h.errorBody(c, dto.ErrCodeConflict,
			fmt.Sprintf("Only %d items available in stock", product.Stock)))
		return
	}

	if item := cart.Item(req.ProductID); item != nil {
		item.Quantity = requested
	} else {
		cart.Items = append(cart.Items, StoredItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := h.save(c, cart); err != nil {
		h.internalError(c, err)
		return
	}
	h.respond(c, cart)
}

// UpdateItem handles PUT /cart/update.
func (h *Handler) UpdateItem(c *gin.Context) {
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, h.errorBody(c, dto.ErrCodeInvalidRequest, "productId and a positive quantity are required"))
		return
	}

	cart, err := h.loadCart(c)
	if err != nil {
		h.internalError(c, err)
		return
	}

	item := cart.Item(req.ProductID)
	if item == nil {
		c.JSON(http.StatusNotFound, h.errorBody(c, dto.ErrCodeNotFound, "Item is not in the cart"))
		return
	}

	if product, ok := h.catalog.Get(req.ProductID); ok && req.Quantity > product.Stock {
		c.JSON(http.StatusConflict, h.errorBody(c, dto.ErrCodeConflict,
			fmt.Sprintf("Only %d items available in stock", product.Stock)))
		return
	}

	item.Quantity = req.Quantity
	if err := h.save(c, cart); err != nil {
		h.internalError(c, err)
		return
	}
	h.respond(c, cart)
}

// RemoveItem handles POST /cart/remove. Removing a product that is not in
// the cart is a no-op, matching the production service's lenient contract.
func (h *Handler) RemoveItem(c *gin.Context) {
	var req dto.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, h.errorBody(c, dto.ErrCodeInvalidRequest, "productId is required"))
		return
	}

	cart, err := h.loadCart(c)
	if err != nil {
		h.internalError(c, err)
		return
	}

	cart.RemoveItem(req.ProductID)
	if err := h.save(c, cart); err != nil {
		h.internalError(c, err)
		return
	}
	h.respond(c, cart)
}

// ClearCart handles POST /cart/clear.
func (h *Handler) ClearCart(c *gin.Context) {
	sid := SessionID(c)
	if err := h.repo.Delete(c.Request.Context(), sid); err != nil {
		h.internalError(c, err)
		return
	}
	h.respond(c, &StoredCart{SessionID: sid})
}

// ListProducts handles GET /products for storefront development.
func (h *Handler) ListProducts(c *gin.Context) {
	products := h.catalog.List()
	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, gin.H{
			"_id":         p.ID,
			"title":       p.Title,
			"price":       p.Price.InexactFloat64(),
			"finalPrice":  p.EffectivePrice().InexactFloat64(),
			"images":      []gin.H{{"url": p.ImageURL}},
			"brandId":     gin.H{"name": p.Brand},
			"size":        p.Size,
			"color":       p.Color,
			"condition":   p.Condition,
			"quantity":    p.Stock,
			"isAvailable": p.Available,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *Handler) save(c *gin.Context, cart *StoredCart) error {
	cart.UpdatedAt = time.Now().UTC()
	return h.repo.Save(c.Request.Context(), cart)
}

// loadCart fetches the session's cart, creating an empty one on first use.
func (h *Handler) loadCart(c *gin.Context) (*StoredCart, error) {
	sid := SessionID(c)
	cart, err := h.repo.Get(c.Request.Context(), sid)
	if errors.Is(err, ErrCartNotFound) {
		return &StoredCart{SessionID: sid}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// respond prices the stored cart against the catalog and writes the shared
// envelope shape. Items whose product has vanished from the catalog are
// omitted rather than priced at zero.
func (h *Handler) respond(c *gin.Context, cart *StoredCart) {
	envelope := dto.CartEnvelope{Cart: &dto.Cart{Items: make([]dto.CartItem, 0, len(cart.Items))}}
	total := decimal.Zero

	for _, item := range cart.Items {
		product, ok := h.catalog.Get(item.ProductID)
		if !ok {
			continue
		}
		unit := product.EffectivePrice()
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		envelope.Cart.Items = append(envelope.Cart.Items, dto.CartItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			FinalPrice: unit.InexactFloat64(),
			Price:      product.Price.InexactFloat64(),
			Product: &dto.ProductInfo{
				Title:     product.Title,
				Image:     product.ImageURL,
				Brand:     product.Brand,
				Size:      product.Size,
				Color:     product.Color,
				Condition: product.Condition,
			},
		})
	}

	envelope.Total = total.InexactFloat64()
	c.JSON(http.StatusOK, envelope)
}

func (h *Handler) errorBody(c *gin.Context, code, message string) dto.ErrorResponse {
	return dto.NewError(code, message).WithRequestID(middleware.GetRequestID(c))
}

func (h *Handler) internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("session", SessionID(c)).Msg("dev gateway cart operation failed")
	c.JSON(http.StatusInternalServerError, h.errorBody(c, dto.ErrCodeInternal, "An unexpected error occurred"))
}
