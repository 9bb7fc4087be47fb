// Package controller maps the four asset actions (add, edit, save, delete)
// onto the store and keeps the form and list state between them.
package controller

import (
	"context"
	"strings"

	"it-inventory-manager/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State governs whether the save action is available.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	default:
		return "unknown"
	}
}

var (
	ErrValidation  = errors.New("all fields are required")
	ErrNoSelection = errors.New("no asset selected")
)

// Dialogs delivers feedback to the user. Confirm blocks until the user
// answers and reports whether they accepted.
type Dialogs interface {
	Info(title, message string)
	Warn(title, message string)
	Confirm(title, message string) bool
}

// Store is the persistence the controller needs.
type Store interface {
	ListAssets(ctx context.Context) ([]models.AssetRow, error)
	GetAsset(ctx context.Context, id int64) (models.Asset, error)
	InsertAsset(ctx context.Context, a models.Asset) (int64, error)
	UpdateAsset(ctx context.Context, id int64, a models.Asset) error
	DeleteAsset(ctx context.Context, id int64) error
}

// Snapshot is what the window renders.
type Snapshot struct {
	State       State
	Selected    int64
	Form        models.Asset
	Rows        []models.AssetRow
	SaveEnabled bool
}

// Controller is not safe for concurrent use; callers serialize actions.
type Controller struct {
	store Store
	log   logrus.FieldLogger

	state    State
	selected int64 // 0 when no row is selected
	editing  int64 // row loaded for edit, 0 when Idle
	form     models.Asset
	rows     []models.AssetRow
}

func New(store Store, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{store: store, log: log, rows: []models.AssetRow{}}
}

func (c *Controller) Snapshot() Snapshot {
	rows := make([]models.AssetRow, len(c.rows))
	copy(rows, c.rows)
	return Snapshot{
		State:       c.state,
		Selected:    c.selected,
		Form:        c.form,
		Rows:        rows,
		SaveEnabled: c.state == Editing,
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Selected() (int64, bool) { return c.selected, c.selected != 0 }

// Select focuses a row of the current list.
func (c *Controller) Select(id int64) error {
	for _, r := range c.rows {
		if r.ID == id {
			c.selected = id
			return nil
		}
	}
	return errors.Wrapf(ErrNoSelection, "asset %d is not in the list", id)
}

func (c *Controller) ClearSelection() { c.selected = 0 }

// SetForm records what the user has typed without acting on it.
func (c *Controller) SetForm(form models.Asset) {
	form.ID = 0
	c.form = form
}

// LoadList replaces the list with the current contents of the store. A
// selection that no longer exists is dropped.
func (c *Controller) LoadList(ctx context.Context) error {
	rows, err := c.store.ListAssets(ctx)
	if err != nil {
		return err
	}
	c.rows = rows

	if c.selected != 0 && !c.hasRow(c.selected) {
		c.selected = 0
	}
	return nil
}

// Add inserts the form values as a new asset. The state is left as it was.
func (c *Controller) Add(ctx context.Context, d Dialogs, form models.Asset) error {
	c.form = form
	if err := c.validate(d, form); err != nil {
		return err
	}

	id, err := c.store.InsertAsset(ctx, form)
	if err != nil {
		return err
	}
	if err := c.LoadList(ctx); err != nil {
		return err
	}
	c.log.WithField("asset_id", id).Info("asset added")
	d.Info("Success", "Asset added successfully!")
	c.form = models.Asset{}
	return nil
}

// LoadForEdit copies the selected asset into the form and enables save.
func (c *Controller) LoadForEdit(ctx context.Context, d Dialogs) error {
	if c.selected == 0 {
		d.Warn("Selection Error", "Please select an asset to edit.")
		return ErrNoSelection
	}

	a, err := c.store.GetAsset(ctx, c.selected)
	if err != nil {
		return err
	}
	a.ID = 0
	c.form = a
	c.state = Editing
	c.editing = c.selected
	c.log.WithField("asset_id", c.selected).Debug("asset loaded for edit")
	return nil
}

// Save writes the form values over the selected asset and returns to Idle.
func (c *Controller) Save(ctx context.Context, d Dialogs, form models.Asset) error {
	if c.selected == 0 {
		d.Warn("Save Error", "No asset selected for saving.")
		return ErrNoSelection
	}
	c.form = form
	if err := c.validate(d, form); err != nil {
		return err
	}

	id := c.selected
	if err := c.store.UpdateAsset(ctx, id, form); err != nil {
		return err
	}
	if err := c.LoadList(ctx); err != nil {
		return err
	}
	c.log.WithField("asset_id", id).Info("asset updated")
	d.Info("Success", "Changes saved successfully!")
	c.form = models.Asset{}
	c.state = Idle
	c.editing = 0
	return nil
}

// Delete removes the selected asset once the user confirms. Deleting the row
// loaded for edit returns to Idle. Declining is not an error.
func (c *Controller) Delete(ctx context.Context, d Dialogs) error {
	if c.selected == 0 {
		d.Warn("Delete Error", "No asset selected for deletion.")
		return ErrNoSelection
	}
	if !d.Confirm("Confirm Deletion", "Are you sure you want to delete the selected asset?") {
		return nil
	}

	id := c.selected
	if err := c.store.DeleteAsset(ctx, id); err != nil {
		return err
	}
	c.selected = 0
	if id == c.editing {
		c.state = Idle
		c.editing = 0
	}
	if err := c.LoadList(ctx); err != nil {
		return err
	}
	c.log.WithField("asset_id", id).Info("asset deleted")
	d.Info("Success", "Asset deleted successfully!")
	return nil
}

func (c *Controller) validate(d Dialogs, form models.Asset) error {
	missing := models.MissingFields(form)
	if len(missing) == 0 {
		return nil
	}
	d.Warn("Input Error", "All fields are required!")
	return errors.Wrapf(ErrValidation, "missing %s", strings.Join(missing, ", "))
}

func (c *Controller) hasRow(id int64) bool {
	for _, r := range c.rows {
		if r.ID == id {
			return true
		}
	}
	return false
}
