package data

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"products.csv": `product_id,name,category,price,stock,description
PROD-001,UltraView 27,monitors,299.99,12,27-inch 4K IPS monitor
PROD-002,LaserJet X200,printers,189.50,3,Compact mono laser printer
PROD-003,UltraView 32,monitors,449.00,0,32-inch 4K monitor
`,
		"orders.csv": `order_id,customer_id,product_id,quantity,total_price,status,order_date
ORD-0001,CUST-001,PROD-001,1,299.99,shipped,2026-08-01
ORD-0002,CUST-002,PROD-002,2,379.00,pending,2026-08-10
`,
		"customers.csv": `customer_id,name,email,pin
CUST-001,Dana Miller,dana@example.com,4321
CUST-002,Sam Lee,sam@example.com,1111
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(writeFixtures(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStoreLoadsAllCollections(t *testing.T) {
	store := newTestStore(t)

	if n := len(store.Products("")); n != 3 {
		t.Errorf("expected 3 products, got %d", n)
	}
	if n := len(store.Orders("")); n != 2 {
		t.Errorf("expected 2 orders, got %d", n)
	}
	if _, ok := store.Customer("CUST-001"); !ok {
		t.Error("expected CUST-001 to load")
	}
}

func TestStoreMissingFilesAreTolerated(t *testing.T) {
	dir := t.TempDir()
	content := "product_id,name,category,price,stock,description\nPROD-001,Thing,misc,1.00,1,A thing\n"
	if err := os.WriteFile(filepath.Join(dir, "products.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("partial dataset must still load: %v", err)
	}
	if len(store.Orders("")) != 0 {
		t.Error("expected no orders")
	}
}

func TestStoreEmptyDirFails(t *testing.T) {
	if _, err := NewStore(t.TempDir()); err == nil {
		t.Fatal("expected error for an empty data dir")
	}
}

func TestStoreCategoryFilterIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	if n := len(store.Products("Monitors")); n != 2 {
		t.Errorf("expected 2 monitors, got %d", n)
	}
}

func TestStoreSearchProducts(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		query string
		want  int
	}{
		{"laser", 1},
		{"4K", 2},
		{"ultraview", 2},
		{"keyboard", 0},
	}
	for _, tt := range tests {
		if got := len(store.SearchProducts(tt.query)); got != tt.want {
			t.Errorf("SearchProducts(%q) = %d results, want %d", tt.query, got, tt.want)
		}
	}
}

func TestStoreCreateOrder(t *testing.T) {
	store := newTestStore(t)

	order, err := store.CreateOrder("CUST-001", "PROD-002", 2)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "ORD-0003" {
		t.Errorf("expected sequential ID ORD-0003, got %s", order.ID)
	}
	if order.TotalPrice != 379.00 {
		t.Errorf("total = %.2f, want 379.00", order.TotalPrice)
	}
	if order.Status != "pending" {
		t.Errorf("status = %q, want pending", order.Status)
	}

	p, _ := store.Product("PROD-002")
	if p.Stock != 1 {
		t.Errorf("stock after order = %d, want 1", p.Stock)
	}

	if _, ok := store.Order("ORD-0003"); !ok {
		t.Error("created order must be retrievable")
	}
}

func TestStoreCreateOrderValidation(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.CreateOrder("CUST-001", "PROD-003", 1); err == nil {
		t.Error("expected insufficient-stock error")
	}
	if _, err := store.CreateOrder("CUST-001", "PROD-999", 1); err == nil {
		t.Error("expected unknown-product error")
	}
	if _, err := store.CreateOrder("CUST-999", "PROD-001", 1); err == nil {
		t.Error("expected unknown-customer error")
	}
	if _, err := store.CreateOrder("CUST-001", "PROD-001", 0); err == nil {
		t.Error("expected non-positive-quantity error")
	}
}

func TestStoreVerifyPIN(t *testing.T) {
	store := newTestStore(t)

	if !store.VerifyPIN("CUST-001", "4321") {
		t.Error("correct PIN must verify")
	}
	if store.VerifyPIN("CUST-001", "0000") {
		t.Error("wrong PIN must fail")
	}
	if store.VerifyPIN("CUST-001", "") {
		t.Error("empty PIN must fail")
	}
	if store.VerifyPIN("CUST-999", "4321") {
		t.Error("unknown customer must fail")
	}
}
