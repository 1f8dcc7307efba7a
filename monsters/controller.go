// Package monsters serves the monsters resource. Its router is mounted by the server below
// /monsters and only relies on paths relative to that mount point.
//
// Browsers get HTML pages and forms, clients that accept JSON get JSON:
//
//	GET    /              list all monsters
//	GET    /new           form for a new monster
//	POST   /              create a monster
//	GET    /{id}          show a monster
//	GET    /{id}/edit     form for an existing monster
//	POST   /{id}          update a monster (PUT works as well)
//	POST   /{id}/delete   delete a monster (DELETE /{id} works as well)
package monsters

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/schema"
	"github.com/gorilla/sessions"
	"github.com/prior-it/bestiary/core"
	"github.com/prior-it/bestiary/server"
	"github.com/prior-it/bestiary/views"
)

const flashSession = "bestiary-flash"

type Controller struct {
	service  core.MonsterService
	renderer views.Renderer
	store    sessions.Store
	decoder  *schema.Decoder
	logger   *slog.Logger
}

// Router returns the monsters router. Flash messages are only shown when store is not nil.
func Router(
	service core.MonsterService,
	renderer views.Renderer,
	store sessions.Store,
) chi.Router {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	c := &Controller{
		service:  service,
		renderer: renderer,
		store:    store,
		decoder:  decoder,
		logger:   slog.Default(),
	}

	r := chi.NewRouter()
	// HEAD requests are answered by the GET handlers
	get := func(pattern string, handler handlerFunc) {
		r.Get(pattern, c.handle(handler))
		r.Head(pattern, c.handle(handler))
	}
	get("/", c.list)
	r.Post("/", c.handle(c.create))
	get("/new", c.newForm)
	// Keep these flat, a nested chi Route would change the route path basePath relies on
	get("/{id}", c.show)
	r.Post("/{id}", c.handle(c.update))
	r.Put("/{id}", c.handle(c.update))
	r.Delete("/{id}", c.handle(c.remove))
	get("/{id}/edit", c.editForm)
	r.Post("/{id}/delete", c.handle(c.remove))
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (c *Controller) handle(handler handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handler(w, r); err != nil {
			server.RespondError(w, r, c.logger, err)
		}
	}
}

func (c *Controller) list(w http.ResponseWriter, r *http.Request) error {
	monsters, err := c.service.ListMonsters(r.Context())
	if err != nil {
		return err
	}
	if wantsJSON(r) {
		render.JSON(w, r, monsters)
		return nil
	}

	list := make([]map[string]any, 0, len(monsters))
	for _, monster := range monsters {
		list = append(list, monsterView(r, &monster))
	}
	return c.page(w, r, "monsters/index", map[string]any{
		"monsters": list,
		"empty":    len(list) == 0,
	})
}

func (c *Controller) show(w http.ResponseWriter, r *http.Request) error {
	monster, err := c.monster(r)
	if err != nil {
		return err
	}
	if wantsJSON(r) {
		render.JSON(w, r, monster)
		return nil
	}
	return c.page(w, r, "monsters/show", map[string]any{
		"monster": monsterView(r, monster),
	})
}

func (c *Controller) newForm(w http.ResponseWriter, r *http.Request) error {
	return c.page(w, r, "monsters/form", map[string]any{
		"title":  "New monster",
		"action": basePath(r) + "/",
		"submit": "Create",
	})
}

func (c *Controller) editForm(w http.ResponseWriter, r *http.Request) error {
	monster, err := c.monster(r)
	if err != nil {
		return err
	}
	view := monsterView(r, monster)
	return c.page(w, r, "monsters/form", map[string]any{
		"title":   "Edit " + monster.Name,
		"action":  view["url"],
		"submit":  "Save",
		"monster": view,
	})
}

func (c *Controller) create(w http.ResponseWriter, r *http.Request) error {
	data, err := c.decode(r)
	if err != nil {
		return err
	}
	monster, err := c.service.CreateMonster(r.Context(), data)
	if err != nil {
		return err
	}
	c.logger.InfoContext(r.Context(), "Monster created", "monster_id", monster.ID)
	if wantsJSON(r) {
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, monster)
		return nil
	}
	c.flash(w, r, fmt.Sprintf("%s has been added to the bestiary.", monster.Name))
	http.Redirect(w, r, monsterURL(r, monster.ID), http.StatusSeeOther)
	return nil
}

func (c *Controller) update(w http.ResponseWriter, r *http.Request) error {
	id, err := monsterID(r)
	if err != nil {
		return err
	}
	data, err := c.decode(r)
	if err != nil {
		return err
	}
	monster, err := c.service.UpdateMonster(r.Context(), id, data)
	if err != nil {
		return err
	}
	if wantsJSON(r) {
		render.JSON(w, r, monster)
		return nil
	}
	c.flash(w, r, fmt.Sprintf("%s has been updated.", monster.Name))
	http.Redirect(w, r, monsterURL(r, monster.ID), http.StatusSeeOther)
	return nil
}

func (c *Controller) remove(w http.ResponseWriter, r *http.Request) error {
	id, err := monsterID(r)
	if err != nil {
		return err
	}
	if err := c.service.DeleteMonster(r.Context(), id); err != nil {
		return err
	}
	c.logger.InfoContext(r.Context(), "Monster deleted", "monster_id", id)
	if wantsJSON(r) || r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	c.flash(w, r, "The monster has been removed from the bestiary.")
	http.Redirect(w, r, basePath(r)+"/", http.StatusSeeOther)
	return nil
}

// page renders an HTML view. Pending flash messages are added to data as "flashes".
func (c *Controller) page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	data["base"] = basePath(r)
	data["flashes"] = c.flashes(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return c.renderer.Render(r.Context(), w, name, data)
}

func (c *Controller) monster(r *http.Request) (*core.Monster, error) {
	id, err := monsterID(r)
	if err != nil {
		return nil, err
	}
	return c.service.GetMonster(r.Context(), id)
}

// decode reads the monster fields from a JSON body or a (urlencoded or multipart) form.
func (c *Controller) decode(r *http.Request) (core.MonsterData, error) {
	var data core.MonsterData
	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		if err := render.DecodeJSON(r.Body, &data); err != nil {
			return data, fmt.Errorf("%w: cannot decode monster: %w", core.ErrBadRequest, err)
		}
		return data, nil
	}
	if err := r.ParseForm(); err != nil {
		return data, fmt.Errorf("%w: cannot parse monster form: %w", core.ErrBadRequest, err)
	}
	if err := c.decoder.Decode(&data, r.PostForm); err != nil {
		return data, fmt.Errorf("%w: cannot decode monster form: %w", core.ErrBadRequest, err)
	}
	return data, nil
}

func monsterID(r *http.Request) (core.MonsterID, error) {
	id, err := core.ParseMonsterID(chi.URLParam(r, "id"))
	if err != nil {
		return id, fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return id, nil
}

func monsterView(r *http.Request, monster *core.Monster) map[string]any {
	return map[string]any{
		"id":          monster.ID.String(),
		"name":        monster.Name,
		"kind":        monster.Kind,
		"description": monster.Description,
		"created":     monster.Created.Format(time.DateOnly),
		"url":         monsterURL(r, monster.ID),
	}
}

func monsterURL(r *http.Request, id core.MonsterID) string {
	return basePath(r) + "/" + id.String()
}

// basePath returns the path this router has been mounted on, or "" if it is not mounted.
func basePath(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.RoutePath) == 0 {
		return ""
	}
	base := strings.TrimSuffix(r.URL.Path, rctx.RoutePath)
	if base == r.URL.Path {
		// The mount point itself, e.g. "/monsters" with route path "/"
		return strings.TrimSuffix(r.URL.Path, "/")
	}
	return strings.TrimSuffix(base, "/")
}

func wantsJSON(r *http.Request) bool {
	return render.GetAcceptedContentType(r) == render.ContentTypeJSON
}
