package store

import (
	"context"
	"fmt"
	"strconv"

	"it-inventory-manager/internal/models"

	"github.com/pkg/errors"
)

const (
	listAssetsSQL = `SELECT id, assigned_to, brand, model, serial_number FROM assets ORDER BY id`

	getAssetSQL = `
		SELECT id, assigned_to, brand, model, serial_number, mac_address, ip_address, warranty_expiration, notes
		FROM assets WHERE id = ?`

	allAssetsSQL = `
		SELECT id, assigned_to, brand, model, serial_number, mac_address, ip_address, warranty_expiration, notes
		FROM assets ORDER BY id`

	findBySerialSQL = `
		SELECT id, assigned_to, brand, model, serial_number, mac_address, ip_address, warranty_expiration, notes
		FROM assets WHERE serial_number = ? ORDER BY id LIMIT 1`

	insertAssetSQL = `
		INSERT INTO assets (assigned_to, brand, model, serial_number, mac_address, ip_address, warranty_expiration, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	updateAssetSQL = `
		UPDATE assets
		SET assigned_to = ?, brand = ?, model = ?, serial_number = ?, mac_address = ?, ip_address = ?, warranty_expiration = ?, notes = ?
		WHERE id = ?`

	deleteAssetSQL = `DELETE FROM assets WHERE id = ?`

	countAssetsSQL = `SELECT COUNT(*) FROM assets`
)

// ListAssets returns the list projection of every asset ordered by id.
func (s *Store) ListAssets(ctx context.Context) ([]models.AssetRow, error) {
	rows, err := s.FetchAll(ctx, listAssetsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list assets")
	}
	out := make([]models.AssetRow, 0, len(rows))
	for _, r := range rows {
		id, err := asInt64(r[0])
		if err != nil {
			return nil, err
		}
		out = append(out, models.AssetRow{
			ID:           id,
			AssignedTo:   asString(r[1]),
			Brand:        asString(r[2]),
			Model:        asString(r[3]),
			SerialNumber: asString(r[4]),
		})
	}
	return out, nil
}

// AllAssets returns every asset with all fields, ordered by id.
func (s *Store) AllAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.FetchAll(ctx, allAssetsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "load assets")
	}
	out := make([]models.Asset, 0, len(rows))
	for _, r := range rows {
		a, err := assetFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAsset loads one asset by id. It returns ErrNotFound when no row matches.
func (s *Store) GetAsset(ctx context.Context, id int64) (models.Asset, error) {
	rows, err := s.FetchAll(ctx, getAssetSQL, id)
	if err != nil {
		return models.Asset{}, errors.Wrapf(err, "get asset %d", id)
	}
	if len(rows) == 0 {
		return models.Asset{}, errors.Wrapf(ErrNotFound, "get asset %d", id)
	}
	return assetFromRow(rows[0])
}

// FindBySerial returns the oldest asset with the given serial number.
func (s *Store) FindBySerial(ctx context.Context, serial string) (models.Asset, bool, error) {
	rows, err := s.FetchAll(ctx, findBySerialSQL, serial)
	if err != nil {
		return models.Asset{}, false, errors.Wrapf(err, "find asset by serial %q", serial)
	}
	if len(rows) == 0 {
		return models.Asset{}, false, nil
	}
	a, err := assetFromRow(rows[0])
	if err != nil {
		return models.Asset{}, false, err
	}
	return a, true, nil
}

// InsertAsset stores a new asset and returns the id assigned to it. The id on
// the argument is ignored. Values are stored as given, empty ones included.
func (s *Store) InsertAsset(ctx context.Context, a models.Asset) (int64, error) {
	res, err := s.exec(ctx, "insert", insertAssetSQL, valueArgs(a)...)
	if err != nil {
		return 0, errors.Wrap(err, "insert asset")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read inserted id")
	}
	return id, nil
}

// UpdateAsset overwrites the eight editable fields of the asset with the given
// id. It returns ErrNotFound when no row matches.
func (s *Store) UpdateAsset(ctx context.Context, id int64, a models.Asset) error {
	args := append(valueArgs(a), id)
	res, err := s.exec(ctx, "update", updateAssetSQL, args...)
	if err != nil {
		return errors.Wrapf(err, "update asset %d", id)
	}
	return requireAffected(res.RowsAffected, "update", id)
}

// DeleteAsset removes the asset with the given id. It returns ErrNotFound when
// no row matches.
func (s *Store) DeleteAsset(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "delete", deleteAssetSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete asset %d", id)
	}
	return requireAffected(res.RowsAffected, "delete", id)
}

func (s *Store) CountAssets(ctx context.Context) (int, error) {
	rows, err := s.FetchAll(ctx, countAssetsSQL)
	if err != nil {
		return 0, errors.Wrap(err, "count assets")
	}
	n, err := asInt64(rows[0][0])
	return int(n), err
}

func requireAffected(affected func() (int64, error), op string, id int64) error {
	n, err := affected()
	if err != nil {
		return errors.Wrapf(err, "%s asset %d", op, id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s asset %d", op, id)
	}
	return nil
}

func valueArgs(a models.Asset) []any {
	values := a.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func assetFromRow(r []any) (models.Asset, error) {
	if len(r) != len(models.Fields)+1 {
		return models.Asset{}, errors.Errorf("asset row has %d columns, want %d", len(r), len(models.Fields)+1)
	}
	id, err := asInt64(r[0])
	if err != nil {
		return models.Asset{}, err
	}
	values := make([]string, len(models.Fields))
	for i := range values {
		values[i] = asString(r[i+1])
	}
	a := models.AssetFromValues(values)
	a.ID = id
	return a, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	default:
		return 0, errors.Errorf("unexpected id type %T", v)
	}
}
