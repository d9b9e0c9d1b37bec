package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ahub-backend/models"
	"ahub-backend/services"

	"github.com/google/uuid"
)

func TestCheckoutSuccess(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	member, token := seedMember(db, "checkout@test.com", "member", nil)
	creditMember(db, member.ID, 100)
	item := seedStoreItem(db, "Tote Bag", 30, 5)

	cartItem := models.CartItem{
		ID:          uuid.New(),
		MemberID:    member.ID,
		StoreItemID: item.ID,
		Quantity:    2,
	}
	db.Create(&cartItem)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/orders", nil, token))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["status"] != "completed" {
		t.Errorf("expected status 'completed', got %v", resp["status"])
	}
	if resp["total_points"] != float64(60) {
		t.Errorf("expected total_points 60, got %v", resp["total_points"])
	}
	if resp["source"] != "store" {
		t.Errorf("expected source 'store', got %v", resp["source"])
	}

	// Balance debited exactly once
	balance, _ := services.BalanceOf(db, member.ID)
	if balance != 40 {
		t.Errorf("expected balance 40 after checkout, got %d", balance)
	}

	// Stock counter decremented and the movement logged
	var reloaded models.StoreItem
	db.Where("id = ?", item.ID).First(&reloaded)
	if reloaded.Stock != 3 {
		t.Errorf("expected stock 3 after checkout, got %d", reloaded.Stock)
	}
	var movementCount int64
	db.Model(&models.StockMovement{}).
		Where("item_type = ? AND item_id = ? AND quantity = ?", models.StockItemStore, item.ID, -2).
		Count(&movementCount)
	if movementCount != 1 {
		t.Errorf("expected 1 stock movement of -2, got %d", movementCount)
	}

	// Cart cleared
	var cartCount int64
	db.Model(&models.CartItem{}).Where("member_id = ?", member.ID).Count(&cartCount)
	if cartCount != 0 {
		t.Errorf("expected cart to be cleared after checkout, got %d items", cartCount)
	}

	// Order item snapshots the price and name
	var orderItems []models.OrderItem
	db.Where("store_item_id = ?", item.ID).Find(&orderItems)
	if len(orderItems) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(orderItems))
	}
	if orderItems[0].PointsPriceAtPurchase != 30 {
		t.Errorf("expected snapshot price 30, got %d", orderItems[0].PointsPriceAtPurchase)
	}
	if orderItems[0].ProductName != "Tote Bag" {
		t.Errorf("expected snapshot name 'Tote Bag', got %q", orderItems[0].ProductName)
	}
}

func TestCheckoutEmptyCartError(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	_, token := seedMember(db, "emptycart@test.com", "member", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/orders", nil, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["error"] != "Cart is empty" {
		t.Errorf("expected 'Cart is empty', got %v", resp["error"])
	}
}

func TestCheckoutInsufficientBalance(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	member, token := seedMember(db, "poor@test.com", "member", nil)
	creditMember(db, member.ID, 20)
	item := seedStoreItem(db, "Hoodie", 50, 5)

	db.Create(&models.CartItem{
		ID:          uuid.New(),
		MemberID:    member.ID,
		StoreItemID: item.ID,
		Quantity:    1,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/orders", nil, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["error"] != "Insufficient balance" {
		t.Errorf("expected 'Insufficient balance', got %v", resp["error"])
	}

	// Nothing moved
	balance, _ := services.BalanceOf(db, member.ID)
	if balance != 20 {
		t.Errorf("expected balance unchanged at 20, got %d", balance)
	}
	var orderCount int64
	db.Model(&models.Order{}).Where("member_id = ?", member.ID).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("expected no orders, got %d", orderCount)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	member, token := seedMember(db, "overbuy@test.com", "member", nil)
	creditMember(db, member.ID, 500)
	item := seedStoreItem(db, "Sticker Pack", 10, 1)

	cartItem := models.CartItem{
		ID:          uuid.New(),
		MemberID:    member.ID,
		StoreItemID: item.ID,
		Quantity:    1,
	}
	db.Create(&cartItem)
	// Someone else drains the stock after the cart was built
	db.Model(&models.StoreItem{}).Where("id = ?", item.ID).Update("stock", 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("POST", "/api/orders", nil, token))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["error"] != "Insufficient stock for Sticker Pack" {
		t.Errorf("expected stock error, got %v", resp["error"])
	}

	balance, _ := services.BalanceOf(db, member.ID)
	if balance != 500 {
		t.Errorf("expected balance unchanged at 500, got %d", balance)
	}
}

// Two checkouts racing the same balance: the member can afford one order but
// not both. Exactly one must succeed.
func TestCheckoutConcurrentDoubleSpend(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	memberA, tokenA := seedMember(db, "race-a@test.com", "member", nil)
	creditMember(db, memberA.ID, 100)
	item := seedStoreItem(db, "Cap", 60, 10)

	db.Create(&models.CartItem{
		ID:          uuid.New(),
		MemberID:    memberA.ID,
		StoreItemID: item.ID,
		Quantity:    1,
	})

	// Whichever request loses either finds the cart already cleared or fails
	// the in-transaction balance re-check. Either way only one debit lands.
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authRequest("POST", "/api/orders", nil, tokenA))
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	success := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			success++
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful checkout, got %d (codes %v)", success, codes)
	}

	// At most one debit of 60
	balance, _ := services.BalanceOf(db, memberA.ID)
	if balance != 40 {
		t.Errorf("expected balance 40 after the race, got %d", balance)
	}
}

func TestGetOrdersScopedToMember(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	memberA, tokenA := seedMember(db, "orders-a@test.com", "member", nil)
	memberB, _ := seedMember(db, "orders-b@test.com", "member", nil)

	for _, mid := range []uuid.UUID{memberA.ID, memberB.ID} {
		order := models.Order{
			ID:          uuid.New(),
			MemberID:    mid,
			Source:      models.OrderSourceStore,
			Status:      models.OrderStatusCompleted,
			TotalPoints: 10,
		}
		db.Create(&order)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/orders", nil, tokenA))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	orders := parseResponseArray(w)
	if len(orders) != 1 {
		t.Errorf("expected 1 order for member A, got %d", len(orders))
	}
}

func TestGetOrderNotFoundForOtherMember(t *testing.T) {
	db := freshDB()
	router := setupOrderRouter(db)

	memberA, _ := seedMember(db, "own-a@test.com", "member", nil)
	_, tokenB := seedMember(db, "own-b@test.com", "member", nil)

	order := models.Order{
		ID:          uuid.New(),
		MemberID:    memberA.ID,
		Source:      models.OrderSourceStore,
		Status:      models.OrderStatusCompleted,
		TotalPoints: 10,
	}
	db.Create(&order)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("GET", "/api/orders/"+order.ID.String(), nil, tokenB))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}
