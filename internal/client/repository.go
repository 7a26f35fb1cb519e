package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	pipehttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

var _ crm.Repository = (*RestRepository)(nil)

// RestRepository implements crm.Repository over the REST API.
type RestRepository struct {
	httpClient     *pipehttp.Client
	entityType     string
	collectionName string
	dateTimeFormat string
	defaultLimit   int
	logger         crm.Logger
	events         crm.EventPublisher
}

// RepositoryOption configures a RestRepository.
type RepositoryOption func(*RestRepository)

// WithDateTimeFormat sets the layout used for timestamps.
func WithDateTimeFormat(layout string) RepositoryOption {
	return func(r *RestRepository) {
		r.dateTimeFormat = layout
	}
}

// WithDefaultLimit sets the limit assumed when criteria set none.
func WithDefaultLimit(limit int) RepositoryOption {
	return func(r *RestRepository) {
		r.defaultLimit = limit
	}
}

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) RepositoryOption {
	return func(r *RestRepository) {
		r.logger = logger
	}
}

// WithEventPublisher publishes an event after every successful write.
func WithEventPublisher(events crm.EventPublisher) RepositoryOption {
	return func(r *RestRepository) {
		r.events = events
	}
}

// NewRestRepository creates a repository for one entity type, e.g. "Account"
// stored in the "Accounts" collection.
func NewRestRepository(
	httpClient *pipehttp.Client,
	entityType, collectionName string,
	opts ...RepositoryOption,
) *RestRepository {
	r := &RestRepository{
		httpClient:     httpClient,
		entityType:     entityType,
		collectionName: collectionName,
		dateTimeFormat: constants.DateTimeFormat,
		defaultLimit:   constants.DefaultLimit,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// EntityType implements crm.Repository.EntityType.
func (r *RestRepository) EntityType() string {
	return r.entityType
}

// CollectionName implements crm.Repository.CollectionName.
func (r *RestRepository) CollectionName() string {
	return r.collectionName
}

// Create implements crm.Repository.Create.
func (r *RestRepository) Create() *crm.Entity {
	return crm.NewEntity(r.entityType).WithDateTimeFormat(r.dateTimeFormat)
}

// Get implements crm.Repository.Get.
func (r *RestRepository) Get(ctx context.Context, criteria *query.Criteria) (*crm.EntityCollection, error) {
	snapshot := query.NewCriteria().
		WithDateTimeFormat(r.dateTimeFormat).
		WithDefaultLimit(r.defaultLimit)

	err := snapshot.Set(criteria)
	if err != nil {
		return nil, fmt.Errorf("preparing %s criteria: %w", r.collectionName, err)
	}

	path := "/" + r.collectionName

	resp, err := r.httpClient.Do(ctx, &pipehttp.Request{
		Method:   http.MethodGet,
		Path:     path,
		RawQuery: snapshot.ToURLQuery(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.collectionName, err)
	}

	var records []map[string]any

	err = pipehttp.DecodeJSON(resp.Body, &records)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list: %w", r.collectionName, err)
	}

	pageRange, err := crm.ParseContentRange(resp.Headers.Get("Content-Range"))
	if err != nil {
		httpErr := crm.NewHTTPError(http.MethodGet, r.httpClient.BaseURL()+path, resp.StatusCode, resp.Body)
		httpErr.Err = err

		return nil, fmt.Errorf("listing %s: %w", r.collectionName, httpErr)
	}

	entities := make([]*crm.Entity, 0, len(records))
	for _, record := range records {
		entities = append(entities, r.decodeEntity(record))
	}

	collection, err := crm.NewEntityCollection(
		entities, snapshot, pageRange.StartIndex, pageRange.EndIndex, pageRange.TotalCount,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.collectionName, err)
	}

	return collection, nil
}

// GetByID implements crm.Repository.GetByID.
func (r *RestRepository) GetByID(ctx context.Context, id string) (*crm.Entity, error) {
	resp, err := r.httpClient.Get(ctx, r.entityPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", r.entityType, id, err)
	}

	var record map[string]any

	err = pipehttp.DecodeJSON(resp.Body, &record)
	if err != nil {
		return nil, fmt.Errorf("parsing %s %s: %w", r.entityType, id, err)
	}

	return r.decodeEntity(record), nil
}

// Save implements crm.Repository.Save.
func (r *RestRepository) Save(ctx context.Context, entity *crm.Entity, mode crm.SendMode) (*crm.Response, error) {
	payload := entity.ModifiedFields()
	if mode == crm.SendAllFields {
		payload = entity.Fields()
	}

	resp, newID, err := r.save(ctx, entity.ID(), payload)
	if err != nil {
		return nil, err
	}

	if newID != "" {
		entity.SetID(newID)
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		entity.ResetModified()
	}

	return toResponse(resp), nil
}

// SaveFields implements crm.Repository.SaveFields.
func (r *RestRepository) SaveFields(ctx context.Context, fields map[string]any) (string, error) {
	id := ""
	if v, ok := fields[crm.IDField]; ok && v != nil {
		id = fmt.Sprint(v)
	}

	_, newID, err := r.save(ctx, id, fields)
	if err != nil {
		return "", err
	}

	if newID != "" {
		return newID, nil
	}

	return id, nil
}

// save sends a PUT for an existing ID and a POST otherwise, returning the
// created ID for 201 responses. The server treats both as partial updates.
func (r *RestRepository) save(ctx context.Context, id string, payload map[string]any) (*pipehttp.Response, string, error) {
	var (
		resp   *pipehttp.Response
		err    error
		action crm.EntityAction
	)

	if id != "" {
		action = crm.ActionUpdated
		resp, err = r.httpClient.Put(ctx, r.entityPath(id), payload)
	} else {
		action = crm.ActionCreated
		resp, err = r.httpClient.Post(ctx, "/"+r.collectionName, payload)
	}

	if err != nil {
		return nil, "", fmt.Errorf("saving %s: %w", r.entityType, err)
	}

	newID := ""
	if resp.StatusCode == http.StatusCreated {
		newID = createdID(resp.Headers.Get("Location"))
		id = newID
	}

	event := crm.NewEntityEvent(action, r.entityType, id)
	event.Fields = payload
	r.publish(ctx, event)

	return resp, newID, nil
}

// Delete implements crm.Repository.Delete.
func (r *RestRepository) Delete(ctx context.Context, entity *crm.Entity) error {
	if !entity.HasID() {
		return fmt.Errorf("deleting %s: %w", r.entityType, crm.ErrEntityWithoutID)
	}

	return r.DeleteByID(ctx, entity.ID())
}

// DeleteByID implements crm.Repository.DeleteByID.
func (r *RestRepository) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("deleting %s: %w", r.entityType, crm.ErrEntityWithoutID)
	}

	_, err := r.httpClient.Delete(ctx, r.entityPath(id))
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", r.entityType, id, err)
	}

	r.publish(ctx, crm.NewEntityEvent(crm.ActionDeleted, r.entityType, id))

	return nil
}

// DeleteByIDs implements crm.Repository.DeleteByIDs.
func (r *RestRepository) DeleteByIDs(ctx context.Context, ids []string, flags crm.BatchFlag) (*crm.Response, error) {
	resp, err := r.httpClient.Do(ctx, &pipehttp.Request{
		Method:   http.MethodPost,
		Path:     "/deleteEntities",
		RawQuery: r.batchQuery(flags),
		Body:     ids,
	})
	if err != nil {
		return nil, fmt.Errorf("deleting %d %s entities: %w", len(ids), r.entityType, err)
	}

	r.publish(ctx, crm.NewEntityEvent(crm.ActionBulkDeleted, r.entityType, ids...))

	return toResponse(resp), nil
}

// BulkUpdate implements crm.Repository.BulkUpdate.
func (r *RestRepository) BulkUpdate(
	ctx context.Context,
	entities []*crm.Entity,
	flags crm.BatchFlag,
	mode crm.SendMode,
) (*crm.Response, error) {
	payload := make([]map[string]any, 0, len(entities))
	ids := make([]string, 0, len(entities))

	for _, entity := range entities {
		values := entity.ModifiedFields()
		if mode == crm.SendAllFields {
			values = entity.Fields()
		}

		if id, ok := entity.Field(crm.IDField); ok {
			values[crm.IDField] = id
		}

		payload = append(payload, values)
		ids = append(ids, entity.ID())
	}

	resp, err := r.httpClient.Do(ctx, &pipehttp.Request{
		Method:   http.MethodPost,
		Path:     "/setEntities",
		RawQuery: r.batchQuery(flags),
		Body:     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("updating %d %s entities: %w", len(entities), r.entityType, err)
	}

	r.publish(ctx, crm.NewEntityEvent(crm.ActionBulkUpdated, r.entityType, ids...))

	return toResponse(resp), nil
}

// EntireRangeIterator implements crm.Repository.EntireRangeIterator.
func (r *RestRepository) EntireRangeIterator(collection *crm.EntityCollection) *crm.EntityCollectionIterator {
	var opts []crm.IteratorOption
	if r.logger != nil {
		opts = append(opts, crm.WithIteratorLogger(r.logger))
	}

	return crm.NewEntityCollectionIterator(r, collection, opts...)
}

func (r *RestRepository) entityPath(id string) string {
	return "/" + r.collectionName + "/" + url.PathEscape(id)
}

// batchQuery builds "entityName=T[&flag=N]"; the flag is omitted when zero.
func (r *RestRepository) batchQuery(flags crm.BatchFlag) string {
	q := "entityName=" + url.QueryEscape(r.entityType)
	if flags != 0 {
		q += "&flag=" + strconv.Itoa(int(flags))
	}

	return q
}

func (r *RestRepository) decodeEntity(record map[string]any) *crm.Entity {
	return crm.LoadEntity(r.entityType, record).WithDateTimeFormat(r.dateTimeFormat)
}

func (r *RestRepository) publish(ctx context.Context, event *crm.EntityEvent) {
	if r.events == nil {
		return
	}

	err := r.events.Publish(ctx, event)
	if err != nil && r.logger != nil {
		r.logger.Warn("Failed to publish entity event", map[string]interface{}{
			"entity": r.entityType,
			"action": string(event.Action),
			"error":  err.Error(),
		})
	}
}

// createdID returns the last path segment of a Location header.
func createdID(location string) string {
	location = strings.TrimSpace(location)
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[i+1:]
	}

	return location
}

func toResponse(resp *pipehttp.Response) *crm.Response {
	return &crm.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}
