package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/jlvsolutions/WorldCities-sub000/internal/api/schema"
	"github.com/jlvsolutions/WorldCities-sub000/internal/events"
	huma "github.com/jlvsolutions/WorldCities-sub000/internal/huma"
	worldrepo "github.com/jlvsolutions/WorldCities-sub000/internal/repository/world"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// EntityHandler serves the CRUD endpoints of one collection.
type EntityHandler[T sdk.Record] struct {
	Entity sdk.Entity
	Repo   worldrepo.Repo[T]
	// Events receives one event per successful mutation. May be nil.
	Events *events.Dispatcher
}

type listInput struct {
	schema.ListParams
}

type childListInput struct {
	ID string `path:"id"`
	schema.ListParams
}

type listOutput[T any] struct {
	Body listquery.Result[T]
}

type idInput struct {
	ID string `path:"id"`
}

type itemOutput[T any] struct {
	Body T
}

type createInput[T any] struct {
	Body T
}

type updateInput[T any] struct {
	ID   string `path:"id"`
	Body T
}

type dupeOutput struct {
	Body bool
}

func field[T sdk.Record](rec T, column string) (any, bool) { return rec.Field(column) }

func page[T sdk.Record](rows []T, p schema.ListParams) (*listOutput[T], error) {
	q, err := p.Query()
	if err != nil {
		return nil, huma.FromError(err)
	}
	res, err := listquery.Paginate(rows, q, field[T])
	if err != nil {
		return nil, huma.FromError(err)
	}
	return &listOutput[T]{Body: res}, nil
}

func RegisterEntity[T sdk.Record](api huma.API, h *EntityHandler[T]) {
	plural := string(h.Entity)
	singular := h.Entity.Singular()
	lower := strings.ToLower(singular)
	base := h.Entity.Endpoint()
	tags := []string{plural}

	huma.Register(api, huma.Operation{
		OperationID: "list-" + strings.ToLower(plural),
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + plural,
		Tags:        tags,
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "get-" + lower,
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get " + singular,
		Tags:        tags,
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID:   "create-" + lower,
		Method:        http.MethodPost,
		Path:          base,
		Summary:       "Create " + singular,
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "update-" + lower,
		Method:      http.MethodPut,
		Path:        base + "/{id}",
		Summary:     "Update " + singular,
		Tags:        tags,
	}, h.update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-" + lower,
		Method:        http.MethodDelete,
		Path:          base + "/{id}",
		Summary:       "Delete " + singular,
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.delete)

	huma.Register(api, huma.Operation{
		OperationID: "isdupe-" + lower,
		Method:      http.MethodPost,
		Path:        h.Entity.DupePath(),
		Summary:     "Check whether a " + singular + " collides with another",
		Tags:        tags,
	}, h.isDupe)
}

func (h *EntityHandler[T]) list(ctx context.Context, in *listInput) (*listOutput[T], error) {
	rows, err := h.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return page(rows, in.ListParams)
}

func (h *EntityHandler[T]) get(ctx context.Context, in *idInput) (*itemOutput[T], error) {
	rec, err := h.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, huma.FromError(err)
	}
	return &itemOutput[T]{Body: rec}, nil
}

func (h *EntityHandler[T]) create(ctx context.Context, in *createInput[T]) (*itemOutput[T], error) {
	rec, err := h.Repo.Create(ctx, in.Body)
	if err != nil {
		return nil, huma.FromError(err)
	}
	h.Events.Dispatch(ctx, events.RecordEvent(h.Entity, events.Created, rec))
	return &itemOutput[T]{Body: rec}, nil
}

func (h *EntityHandler[T]) update(ctx context.Context, in *updateInput[T]) (*itemOutput[T], error) {
	if k := in.Body.Key(); k != "" && k != "0" && k != in.ID {
		return nil, huma.Error400BadRequest("The record id " + k + " does not match the path id " + in.ID + ".")
	}
	rec, err := h.Repo.Update(ctx, in.ID, in.Body)
	if err != nil {
		return nil, huma.FromError(err)
	}
	h.Events.Dispatch(ctx, events.RecordEvent(h.Entity, events.Updated, rec))
	return &itemOutput[T]{Body: rec}, nil
}

func (h *EntityHandler[T]) delete(ctx context.Context, in *idInput) (*struct{}, error) {
	if err := h.Repo.Delete(ctx, in.ID); err != nil {
		return nil, huma.FromError(err)
	}
	h.Events.Dispatch(ctx, events.RecordEvent(h.Entity, events.Deleted, map[string]string{"id": in.ID}))
	return nil, nil
}

func (h *EntityHandler[T]) isDupe(ctx context.Context, in *createInput[T]) (*dupeOutput, error) {
	dupe, err := h.Repo.IsDupe(ctx, in.Body)
	if err != nil {
		return nil, err
	}
	return &dupeOutput{Body: dupe}, nil
}

// RegisterChildren serves GET {parent}/{id}/{child}, the records of child
// that belong to parent id.
func RegisterChildren[T sdk.Record](api huma.API, parent, child sdk.Entity, list func(ctx context.Context, parentID string) ([]T, error)) {
	huma.Register(api, huma.Operation{
		OperationID: "list-" + strings.ToLower(parent.Singular()) + "-" + strings.ToLower(string(child)),
		Method:      http.MethodGet,
		Path:        parent.Endpoint() + "/{id}/" + string(child),
		Summary:     "List the " + string(child) + " of a " + parent.Singular(),
		Tags:        []string{string(parent)},
	}, func(ctx context.Context, in *childListInput) (*listOutput[T], error) {
		rows, err := list(ctx, in.ID)
		if err != nil {
			return nil, huma.FromError(err)
		}
		return page(rows, in.ListParams)
	})
}
