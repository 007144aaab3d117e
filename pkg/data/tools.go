package data

import (
	"context"
	"fmt"
	"strings"

	"helpdesk/pkg/tools"
)

// RegisterTools adds every local lookup tool backed by the store.
func RegisterTools(registry *tools.Registry, store *Store) {
	registry.Register(&listProductsTool{store})
	registry.Register(&searchProductsTool{store})
	registry.Register(&getProductTool{store})
	registry.Register(&listOrdersTool{store})
	registry.Register(&getOrderTool{store})
	registry.Register(&createOrderTool{store})
	registry.Register(&getCustomerTool{store})
	registry.Register(&verifyCustomerPINTool{store})
}

func formatProduct(p Product) string {
	return fmt.Sprintf("**%s** (%s)\n- ID: %s\n- Price: $%.2f\n- Stock: %d\n- %s",
		p.Name, p.Category, p.ID, p.Price, p.Stock, p.Description)
}

func formatOrder(o Order) string {
	return fmt.Sprintf("**Order %s**\n- Customer: %s\n- Product: %s\n- Quantity: %d\n- Total: $%.2f\n- Status: %s\n- Date: %s",
		o.ID, o.CustomerID, o.ProductID, o.Quantity, o.TotalPrice, o.Status, o.OrderDate)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

//----------------------------------------------------------------
// Product Catalog
//----------------------------------------------------------------

type listProductsTool struct{ store *Store }

func (t *listProductsTool) Name() string { return "list_products" }
func (t *listProductsTool) Description() string {
	return "List all available products, optionally filtered by category (e.g., monitors, printers)."
}
func (t *listProductsTool) Parameters() map[string]any {
	return map[string]any{
		"category": map[string]any{
			"type":        "string",
			"description": "Optional category filter (e.g., 'monitors', 'printers')",
		},
	}
}
func (t *listProductsTool) RequiredParameters() []string { return []string{} }

func (t *listProductsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	products := t.store.Products(stringArg(args, "category"))
	if len(products) == 0 {
		return "No products found.", nil
	}
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, formatProduct(p))
	}
	return strings.Join(parts, "\n\n"), nil
}

type searchProductsTool struct{ store *Store }

func (t *searchProductsTool) Name() string { return "search_products" }
func (t *searchProductsTool) Description() string {
	return "Search products by keyword across name, category and description."
}
func (t *searchProductsTool) Parameters() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Search keyword (e.g., 'laser printer', '4K monitor')",
		},
	}
}
func (t *searchProductsTool) RequiredParameters() []string { return []string{"query"} }

func (t *searchProductsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	products := t.store.SearchProducts(query)
	if len(products) == 0 {
		return fmt.Sprintf("No products matching '%s' found.", query), nil
	}
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, formatProduct(p))
	}
	return strings.Join(parts, "\n\n"), nil
}

type getProductTool struct{ store *Store }

func (t *getProductTool) Name() string { return "get_product" }
func (t *getProductTool) Description() string {
	return "Get full details for a single product by its ID."
}
func (t *getProductTool) Parameters() map[string]any {
	return map[string]any{
		"product_id": map[string]any{
			"type":        "string",
			"description": "The product ID (e.g., 'PROD-001')",
		},
	}
}
func (t *getProductTool) RequiredParameters() []string { return []string{"product_id"} }

func (t *getProductTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "product_id")
	if id == "" {
		return "", fmt.Errorf("product_id is required")
	}
	p, ok := t.store.Product(id)
	if !ok {
		return fmt.Sprintf("Product '%s' not found.", id), nil
	}
	return formatProduct(p), nil
}

//----------------------------------------------------------------
// Order System
//----------------------------------------------------------------

type listOrdersTool struct{ store *Store }

func (t *listOrdersTool) Name() string { return "list_orders" }
func (t *listOrdersTool) Description() string {
	return "List orders, optionally filtered by customer ID."
}
func (t *listOrdersTool) Parameters() map[string]any {
	return map[string]any{
		"customer_id": map[string]any{
			"type":        "string",
			"description": "Optional customer ID to filter by (e.g., 'CUST-001')",
		},
	}
}
func (t *listOrdersTool) RequiredParameters() []string { return []string{} }

func (t *listOrdersTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	orders := t.store.Orders(stringArg(args, "customer_id"))
	if len(orders) == 0 {
		return "No orders found.", nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		parts = append(parts, formatOrder(o))
	}
	return strings.Join(parts, "\n\n"), nil
}

type getOrderTool struct{ store *Store }

func (t *getOrderTool) Name() string { return "get_order" }
func (t *getOrderTool) Description() string {
	return "Get the status and details of an order by its ID."
}
func (t *getOrderTool) Parameters() map[string]any {
	return map[string]any{
		"order_id": map[string]any{
			"type":        "string",
			"description": "The order ID (e.g., 'ORD-0001')",
		},
	}
}
func (t *getOrderTool) RequiredParameters() []string { return []string{"order_id"} }

func (t *getOrderTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "order_id")
	if id == "" {
		return "", fmt.Errorf("order_id is required")
	}
	o, ok := t.store.Order(id)
	if !ok {
		return fmt.Sprintf("Order '%s' not found.", id), nil
	}
	return formatOrder(o), nil
}

type createOrderTool struct{ store *Store }

func (t *createOrderTool) Name() string { return "create_order" }
func (t *createOrderTool) Description() string {
	return "Place a new order for a product on behalf of a customer."
}
func (t *createOrderTool) Parameters() map[string]any {
	return map[string]any{
		"customer_id": map[string]any{
			"type":        "string",
			"description": "The ordering customer's ID",
		},
		"product_id": map[string]any{
			"type":        "string",
			"description": "The product to order",
		},
		"quantity": map[string]any{
			"type":        "integer",
			"description": "Number of units to order",
		},
	}
}
func (t *createOrderTool) RequiredParameters() []string {
	return []string{"customer_id", "product_id", "quantity"}
}

func (t *createOrderTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	order, err := t.store.CreateOrder(
		stringArg(args, "customer_id"),
		stringArg(args, "product_id"),
		intArg(args, "quantity"),
	)
	if err != nil {
		return "", err
	}
	return "Order placed successfully.\n\n" + formatOrder(order), nil
}

//----------------------------------------------------------------
// Customer Database
//----------------------------------------------------------------

type getCustomerTool struct{ store *Store }

func (t *getCustomerTool) Name() string { return "get_customer" }
func (t *getCustomerTool) Description() string {
	return "Look up a customer's profile by their customer ID."
}
func (t *getCustomerTool) Parameters() map[string]any {
	return map[string]any{
		"customer_id": map[string]any{
			"type":        "string",
			"description": "The customer ID (e.g., 'CUST-001')",
		},
	}
}
func (t *getCustomerTool) RequiredParameters() []string { return []string{"customer_id"} }

func (t *getCustomerTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "customer_id")
	if id == "" {
		return "", fmt.Errorf("customer_id is required")
	}
	c, ok := t.store.Customer(id)
	if !ok {
		return fmt.Sprintf("Customer '%s' not found.", id), nil
	}
	// PIN is never echoed back to the model
	return fmt.Sprintf("**%s**\n- ID: %s\n- Email: %s", c.Name, c.ID, c.Email), nil
}

type verifyCustomerPINTool struct{ store *Store }

func (t *verifyCustomerPINTool) Name() string { return "verify_customer_pin" }
func (t *verifyCustomerPINTool) Description() string {
	return "Verify a customer's identity using their customer ID and PIN before account-specific actions."
}
func (t *verifyCustomerPINTool) Parameters() map[string]any {
	return map[string]any{
		"customer_id": map[string]any{
			"type":        "string",
			"description": "The customer ID",
		},
		"pin": map[string]any{
			"type":        "string",
			"description": "The customer's PIN",
		},
	}
}
func (t *verifyCustomerPINTool) RequiredParameters() []string {
	return []string{"customer_id", "pin"}
}

func (t *verifyCustomerPINTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.store.VerifyPIN(stringArg(args, "customer_id"), stringArg(args, "pin")) {
		return "PIN verified. Customer identity confirmed.", nil
	}
	return "PIN verification failed.", nil
}
