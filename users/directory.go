package users

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/optimistic"
)

// AdminPath is the backend user administration endpoint
const AdminPath = "/admin/users"

// Directory is the admin view of all users. Changes are shown immediately and reverted if the backend rejects them.
type Directory struct {
	client *fetch.Client
	users  *optimistic.Cell[[]Record]
	logger zerolog.Logger

	mu  sync.Mutex
	err error
}

func NewDirectory(client *fetch.Client, logger zerolog.Logger) *Directory {
	return &Directory{
		client: client,
		users:  optimistic.NewCell[[]Record](nil, slices.Clone[[]Record]),
		logger: logger,
	}
}

type statusUpdate struct {
	IsAdmin  bool `json:"is_admin"`
	IsActive bool `json:"is_active"`
}

// Load fetches every user
func (d *Directory) Load(ctx context.Context) error {
	resp, err := d.client.Do(ctx, fetch.NewRequest(http.MethodGet, AdminPath))
	if err != nil {
		return d.fail(fmt.Errorf("[users Load] %w", err))
	}
	if err := fetch.CheckStatus(resp, http.MethodGet, AdminPath); err != nil {
		return d.fail(err)
	}

	var reply struct {
		Users []Record `json:"users"`
	}
	if err := resp.DecodeJSON(&reply); err != nil {
		d.logger.Warn().Err(err).Msg("malformed user listing, treating as empty")
	}
	d.users.Set(reply.Users)
	d.setErr(nil)
	return nil
}

// Users returns the loaded users, including changes not yet confirmed
func (d *Directory) Users() []Record {
	return d.users.Get()
}

// Err returns the error of the last failed operation
func (d *Directory) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Directory) ToggleAdmin(ctx context.Context, id int64) error {
	return d.toggle(ctx, id, func(r *Record) { r.IsAdmin = !r.IsAdmin })
}

func (d *Directory) ToggleActive(ctx context.Context, id int64) error {
	return d.toggle(ctx, id, func(r *Record) { r.IsActive = !r.IsActive })
}

// Delete removes a user
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if _, err := d.find(id); err != nil {
		return d.fail(fmt.Errorf("[users Delete] %w", err))
	}

	err := d.users.Apply(ctx, func(rs []Record) []Record {
		return slices.DeleteFunc(rs, func(r Record) bool { return r.ID == id })
	}, func(ctx context.Context) error {
		return d.send(ctx, fetch.NewRequest(http.MethodDelete, userPath(id)))
	})
	if err != nil {
		return d.fail(fmt.Errorf("[users Delete] %w", err))
	}
	d.setErr(nil)
	return nil
}

func (d *Directory) toggle(ctx context.Context, id int64, flip func(*Record)) error {
	current, err := d.find(id)
	if err != nil {
		return d.fail(fmt.Errorf("[users toggle] %w", err))
	}
	flip(&current)

	req, err := fetch.NewJSONRequest(http.MethodPut, userPath(id), statusUpdate{IsAdmin: current.IsAdmin, IsActive: current.IsActive})
	if err != nil {
		return d.fail(err)
	}

	err = d.users.Apply(ctx, func(rs []Record) []Record {
		for i := range rs {
			if rs[i].ID == id {
				rs[i] = current
			}
		}
		return rs
	}, func(ctx context.Context) error {
		return d.send(ctx, req)
	})
	if err != nil {
		d.logger.Warn().Err(err).Int64("user_id", id).Msg("user update rejected, reverted")
		return d.fail(fmt.Errorf("[users toggle] %w", err))
	}
	d.setErr(nil)
	return nil
}

func (d *Directory) find(id int64) (Record, error) {
	if err := validation.Validate(id, validation.Required, validation.Min(1)); err != nil {
		return Record{}, fmt.Errorf("%w: user id %v", errors.ErrInvalidItem, err)
	}
	for _, r := range d.users.Get() {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
}

func (d *Directory) send(ctx context.Context, req *fetch.Request) error {
	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return err
	}
	return fetch.CheckStatus(resp, req.Method, req.Path)
}

func (d *Directory) fail(err error) error {
	d.setErr(err)
	return err
}

func (d *Directory) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func userPath(id int64) string {
	return fmt.Sprintf("%s/%d", AdminPath, id)
}
