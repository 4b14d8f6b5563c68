package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

// Resource serves the CRUD routes of one collection. Payloads are sanitized
// and validated in full before anything is written.
type Resource[T any] struct {
	workspaces *workspace.Manager
	validate   *validation.Validator
	store      func(*workspace.Workspace) *entity.Store[T]
	defaults   func(*T)
	deleter    func(ctx context.Context, ws *workspace.Workspace, id string) error
}

type ResourceOption[T any] func(*Resource[T])

// WithDefaults fills fields a new record may omit, before validation.
func WithDefaults[T any](fn func(*T)) ResourceOption[T] {
	return func(r *Resource[T]) { r.defaults = fn }
}

// WithDeleter replaces the plain store delete, e.g. to also drop blob content.
func WithDeleter[T any](fn func(ctx context.Context, ws *workspace.Workspace, id string) error) ResourceOption[T] {
	return func(r *Resource[T]) { r.deleter = fn }
}

func NewResource[T any](workspaces *workspace.Manager, validate *validation.Validator, store func(*workspace.Workspace) *entity.Store[T], opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{
		workspaces: workspaces,
		validate:   validate,
		store:      store,
		defaults:   func(*T) {},
	}
	r.deleter = func(ctx context.Context, ws *workspace.Workspace, id string) error {
		return r.store(ws).Delete(ctx, id)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount registers the routes on a group dedicated to the collection.
// guards run before DELETE only.
func (r *Resource[T]) Mount(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/", r.List)
	router.Get("/:id", r.Get)
	router.Post("/", r.Create)
	router.Put("/:id", r.Update)
	router.Patch("/:id", r.Update)
	router.Delete("/:id", append(guards, r.Delete)...)
}

func (r *Resource[T]) List(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, r.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r.store(ws).All())
}

func (r *Resource[T]) Get(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, r.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	item, ok := r.store(ws).Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}
	return c.JSON(item)
}

func (r *Resource[T]) Create(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, r.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	rec, err := bodyRecord(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	v, err := entity.FromRecord[T](rec)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid field values")
	}
	r.defaults(&v)
	if err := r.validate.Struct(v); err != nil {
		return respondError(c, err)
	}

	created, err := r.store(ws).Create(c.UserContext(), v)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update merges the body into the current record. The merged record must
// still validate; only the fields sent are written.
func (r *Resource[T]) Update(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, r.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	id := c.Params("id")
	if entity.IsLocalID(id) {
		return respondError(c, entity.ErrPending)
	}
	store := r.store(ws)
	current, ok := store.Get(id)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Record not found")
	}

	patch, err := bodyRecord(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	v, normalized, err := mergeTyped(current, patch)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid field values")
	}
	if err := r.validate.Struct(v); err != nil {
		return respondError(c, err)
	}

	updated, err := store.Update(c.UserContext(), id, normalized)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (r *Resource[T]) Delete(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, r.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	if err := r.deleter(c.UserContext(), ws, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// bodyRecord parses a JSON object body, sanitizes its strings and drops any
// client-supplied id.
func bodyRecord(c *fiber.Ctx) (docstore.Record, error) {
	rec := docstore.Record{}
	if err := c.BodyParser(&rec); err != nil {
		return nil, err
	}
	rec = validation.Sanitize(rec)
	delete(rec, docstore.IDField)
	return rec, nil
}

// mergeTyped applies patch to current and returns the typed result together
// with the patch rewritten in canonical form (amounts as numbers). Fields
// the type does not know are kept as sent.
func mergeTyped[T any](current T, patch docstore.Record) (T, docstore.Record, error) {
	var zero T
	base, err := entity.ToRecord(current)
	if err != nil {
		return zero, nil, err
	}
	v, err := entity.FromRecord[T](base.Merge(patch))
	if err != nil {
		return zero, nil, err
	}
	canonical, err := entity.ToRecord(v)
	if err != nil {
		return zero, nil, err
	}

	out := make(docstore.Record, len(patch))
	for k, sent := range patch {
		if val, ok := canonical[k]; ok {
			out[k] = val
		} else {
			out[k] = sent
		}
	}
	return v, out, nil
}
