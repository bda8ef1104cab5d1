package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/netx"
)

// RESTRepository talks to the profile table through PostgREST.
type RESTRepository struct {
	tableURL string
	anonKey  string
	tokens   TokenSource
	http     *http.Client
	log      logging.Logger
}

func NewRESTRepository(projectURL, anonKey string, tokens TokenSource, hc *http.Client, log logging.Logger) *RESTRepository {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &RESTRepository{
		tableURL: strings.TrimRight(projectURL, "/") + "/rest/v1/" + common.ProfileTable,
		anonKey:  anonKey,
		tokens:   tokens,
		http:     hc,
		log:      log.With("module", "profiles", "backend", "rest"),
	}
}

type createRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (r *RESTRepository) Fetch(ctx context.Context, id string) (*models.Profile, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	// two rows are enough to detect a cardinality violation
	q.Set("limit", "2")

	var rows []models.Profile
	if err := r.do(ctx, http.MethodGet, r.tableURL+"?"+q.Encode(), nil, &rows); err != nil {
		return nil, err
	}
	return single(rows)
}

func (r *RESTRepository) Create(ctx context.Context, id, username, defaultEmail, defaultName string) (*models.Profile, error) {
	body := createRow{ID: id, Username: username, Email: defaultEmail, Name: defaultName}

	var rows []models.Profile
	if err := r.do(ctx, http.MethodPost, r.tableURL, body, &rows); err != nil {
		return nil, err
	}
	return single(rows)
}

func (r *RESTRepository) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var rows []models.Profile
	if err := r.do(ctx, http.MethodPatch, r.tableURL+"?"+q.Encode(), patch, &rows); err != nil {
		return nil, err
	}
	return single(rows)
}

func (r *RESTRepository) do(ctx context.Context, method, u string, body, out any) error {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return Classify(err)
	}

	h := http.Header{}
	h.Set("apikey", r.anonKey)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Prefer", "return=representation")

	err = netx.DoJSON(ctx, r.http, netx.Request{Method: method, URL: u, Header: h, Body: body}, out)
	if err != nil {
		err = decodeStorageError(err)
		r.log.Warn(ctx, "profile request failed", "method", method, "error", err)
		return Classify(err)
	}
	return nil
}

// decodeStorageError lifts a PostgREST error body out of an HTTP failure so
// Classify can see its SQLSTATE.
func decodeStorageError(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) || len(se.Body) == 0 {
		return err
	}
	storageErr := &StorageError{}
	if json.Unmarshal(se.Body, storageErr) != nil || storageErr.Code == "" {
		return err
	}
	return fmt.Errorf("http %d: %w", se.StatusCode, storageErr)
}

func single(rows []models.Profile) (*models.Profile, error) {
	switch len(rows) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		p := rows[0]
		return &p, nil
	default:
		return nil, fmt.Errorf("%w: expected one row, got %d", common.ErrRepository, len(rows))
	}
}
