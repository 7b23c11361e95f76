package devserver

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

// User is a backend account
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"nombre"`
	LastName  *string   `json:"apellido"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog entry
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

// CartLine is a stored cart line
type CartLine struct {
	ID        int64
	ProductID int64
	Quantity  int
}

// CartItem is a cart line as the API returns it
type CartItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// store holds all backend state in memory
type store struct {
	mu         sync.Mutex
	users      map[int64]*User
	products   map[int64]Product
	carts      map[int64][]CartLine
	favorites  map[int64][]int64
	passkeys   map[int64][]string
	codes      map[string]string
	nextUserID int64
	nextLineID int64
}

func newStore() *store {
	s := &store{
		users:     map[int64]*User{},
		products:  map[int64]Product{},
		carts:     map[int64][]CartLine{},
		favorites: map[int64][]int64{},
		passkeys:  map[int64][]string{},
		codes:     map[string]string{},
	}
	for i := int64(1); i <= 12; i++ {
		s.products[i] = Product{
			ID:       i,
			Name:     fmt.Sprintf("Model %02d", i),
			Price:    float64(i) * 9.5,
			ImageURL: fmt.Sprintf("/uploads/model-%02d.png", i),
		}
	}
	return s
}

func (s *store) catalog() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Product) int { return int(a.ID - b.ID) })
	return out
}

// userByEmail returns the user with email, creating an active account when create is set
func (s *store) userByEmail(email string, create bool) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	if !create {
		return nil, fmt.Errorf("user %s: %w", email, errors.ErrNotFound)
	}
	s.nextUserID++
	u := &User{ID: s.nextUserID, Email: email, IsActive: true, CreatedAt: NowTimeFunc()}
	s.users[u.ID] = u
	c := *u
	return &c, nil
}

func (s *store) user(id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (s *store) listUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b User) int { return int(a.ID - b.ID) })
	return out
}

func (s *store) updateUser(id int64, isAdmin, isActive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
	}
	u.IsAdmin = isAdmin
	u.IsActive = isActive
	return nil
}

func (s *store) deleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
	}
	delete(s.users, id)
	delete(s.carts, id)
	delete(s.favorites, id)
	delete(s.passkeys, id)
	return nil
}

// cartItems returns the user's lines joined with the catalog
func (s *store) cartItems(userID int64) []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CartItem, 0, len(s.carts[userID]))
	for _, l := range s.carts[userID] {
		p := s.products[l.ProductID]
		items = append(items, CartItem{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: p.Name,
			ImageURL:    p.ImageURL,
			Price:       p.Price,
			Quantity:    l.Quantity,
		})
	}
	return items
}

// addToCart adds quantity to the user's line for productID, creating it when missing
func (s *store) addToCart(userID, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return fmt.Errorf("product %d: %w", productID, errors.ErrNotFound)
	}
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			return nil
		}
	}
	s.nextLineID++
	s.carts[userID] = append(lines, CartLine{ID: s.nextLineID, ProductID: productID, Quantity: quantity})
	return nil
}

// setQuantity updates a line; zero or less removes it
func (s *store) setQuantity(userID, lineID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ID != lineID {
			continue
		}
		if quantity <= 0 {
			s.carts[userID] = slices.Delete(lines, i, i+1)
		} else {
			lines[i].Quantity = quantity
		}
		return nil
	}
	return fmt.Errorf("cart line %d: %w", lineID, errors.ErrNotFound)
}

func (s *store) removeLine(userID, lineID int64) error {
	return s.setQuantity(userID, lineID, 0)
}

func (s *store) clearCart(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

func (s *store) listFavorites(userID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites[userID])
}

func (s *store) addFavorite(userID, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.favorites[userID], productID) {
		s.favorites[userID] = append(s.favorites[userID], productID)
	}
}

func (s *store) removeFavorite(userID, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[userID] = slices.DeleteFunc(s.favorites[userID], func(id int64) bool { return id == productID })
}

func (s *store) setCode(email, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[strings.ToLower(strings.TrimSpace(email))] = code
}

// takeCode reports whether code was issued for email, consuming it on success
func (s *store) takeCode(email, code string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if want, ok := s.codes[email]; !ok || want != code {
		return false
	}
	delete(s.codes, email)
	return true
}

func (s *store) code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[strings.ToLower(strings.TrimSpace(email))]
}

func (s *store) addPasskey(userID int64, credentialID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.passkeys[userID], credentialID) {
		s.passkeys[userID] = append(s.passkeys[userID], credentialID)
	}
}

func (s *store) userPasskeys(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.passkeys[userID])
}
