package data

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Product is one catalog entry loaded from products.csv.
type Product struct {
	ID          string
	Name        string
	Category    string
	Price       float64
	Stock       int
	Description string
}

// Order is one row from orders.csv plus any orders created at runtime.
type Order struct {
	ID         string
	CustomerID string
	ProductID  string
	Quantity   int
	TotalPrice float64
	Status     string
	OrderDate  string
}

// Customer is one row from customers.csv.
type Customer struct {
	ID    string
	Name  string
	Email string
	PIN   string
}

// Store holds the structured business data backing the local tools.
// CSV files are read once at startup; created orders live in memory.
type Store struct {
	mu        sync.RWMutex
	products  []Product
	orders    []Order
	customers []Customer
	orderSeq  int
}

// NewStore loads products.csv, orders.csv and customers.csv from dir.
// A missing file logs a warning and leaves that collection empty, so a
// partial dataset still serves the tools it can.
func NewStore(dir string) (*Store, error) {
	s := &Store{}

	if rows, err := readCSV(filepath.Join(dir, "products.csv")); err != nil {
		slog.Warn("Products data unavailable", "error", err)
	} else {
		for _, row := range rows {
			price, _ := strconv.ParseFloat(row["price"], 64)
			stock, _ := strconv.Atoi(row["stock"])
			s.products = append(s.products, Product{
				ID:          row["product_id"],
				Name:        row["name"],
				Category:    row["category"],
				Price:       price,
				Stock:       stock,
				Description: row["description"],
			})
		}
		slog.Info("Loaded structured data", "file", "products.csv", "rows", len(s.products))
	}

	if rows, err := readCSV(filepath.Join(dir, "orders.csv")); err != nil {
		slog.Warn("Orders data unavailable", "error", err)
	} else {
		for _, row := range rows {
			qty, _ := strconv.Atoi(row["quantity"])
			total, _ := strconv.ParseFloat(row["total_price"], 64)
			s.orders = append(s.orders, Order{
				ID:         row["order_id"],
				CustomerID: row["customer_id"],
				ProductID:  row["product_id"],
				Quantity:   qty,
				TotalPrice: total,
				Status:     row["status"],
				OrderDate:  row["order_date"],
			})
		}
		s.orderSeq = len(s.orders)
		slog.Info("Loaded structured data", "file", "orders.csv", "rows", len(s.orders))
	}

	if rows, err := readCSV(filepath.Join(dir, "customers.csv")); err != nil {
		slog.Warn("Customers data unavailable", "error", err)
	} else {
		for _, row := range rows {
			s.customers = append(s.customers, Customer{
				ID:    row["customer_id"],
				Name:  row["name"],
				Email: row["email"],
				PIN:   row["pin"],
			})
		}
		slog.Info("Loaded structured data", "file", "customers.csv", "rows", len(s.customers))
	}

	if len(s.products) == 0 && len(s.orders) == 0 && len(s.customers) == 0 {
		return nil, fmt.Errorf("no structured data found under %s", dir)
	}
	return s, nil
}

// readCSV parses a headered CSV file into one map per row.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Products returns all catalog entries, optionally filtered by category.
func (s *Store) Products(category string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if category == "" {
		return append([]Product(nil), s.products...)
	}
	var out []Product
	for _, p := range s.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// SearchProducts matches the query against name, category and description.
func (s *Store) SearchProducts(query string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []Product
	for _, p := range s.products {
		haystack := strings.ToLower(p.Name + " " + p.Category + " " + p.Description)
		if strings.Contains(haystack, q) {
			out = append(out, p)
		}
	}
	return out
}

// Product looks up a catalog entry by ID.
func (s *Store) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Product{}, false
}

// Orders returns orders, optionally filtered by customer ID.
func (s *Store) Orders(customerID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if customerID == "" {
		return append([]Order(nil), s.orders...)
	}
	var out []Order
	for _, o := range s.orders {
		if strings.EqualFold(o.CustomerID, customerID) {
			out = append(out, o)
		}
	}
	return out
}

// Order looks up an order by ID.
func (s *Store) Order(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if strings.EqualFold(o.ID, id) {
			return o, true
		}
	}
	return Order{}, false
}

// CreateOrder places a new order, decrementing product stock.
func (s *Store) CreateOrder(customerID, productID string, quantity int) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return Order{}, fmt.Errorf("quantity must be positive")
	}

	var product *Product
	for i := range s.products {
		if strings.EqualFold(s.products[i].ID, productID) {
			product = &s.products[i]
			break
		}
	}
	if product == nil {
		return Order{}, fmt.Errorf("product %s not found", productID)
	}
	if product.Stock < quantity {
		return Order{}, fmt.Errorf("insufficient stock for %s: %d available", product.Name, product.Stock)
	}

	found := false
	for _, c := range s.customers {
		if strings.EqualFold(c.ID, customerID) {
			found = true
			break
		}
	}
	if !found {
		return Order{}, fmt.Errorf("customer %s not found", customerID)
	}

	s.orderSeq++
	order := Order{
		ID:         fmt.Sprintf("ORD-%04d", s.orderSeq),
		CustomerID: customerID,
		ProductID:  product.ID,
		Quantity:   quantity,
		TotalPrice: product.Price * float64(quantity),
		Status:     "pending",
		OrderDate:  time.Now().Format("2006-01-02"),
	}
	product.Stock -= quantity
	s.orders = append(s.orders, order)
	return order, nil
}

// Customer looks up a customer by ID.
func (s *Store) Customer(id string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return Customer{}, false
}

// VerifyPIN checks a customer's PIN. Unknown customers fail verification.
func (s *Store) VerifyPIN(customerID, pin string) bool {
	c, ok := s.Customer(customerID)
	return ok && pin != "" && c.PIN == pin
}
