/*
Package server composes the HTTP surface of the application.

A [Server] is built once from an [Options] value and is not changed afterwards. Requests pass
through the default middleware, then the static file middleware (which answers directly when the
path names an existing file), and finally the router:

	/monsters/*  -> the monsters sub-router, untouched
	GET /        -> the "index" view
	GET /ping    -> "pong"
	anything else -> 404

HEAD requests are answered by the matching GET route.

Handlers in this package take an [Exchange], which bundles the request, the response writer and
some utility functions, and return an error that is translated into a response by the
[ErrorHandler].

Basic example:

	cfg, err := config.Load(os.DirFS("."))
	if err != nil {
		log.Fatal(err)
	}
	renderer, err := views.New(cfg.Views)
	if err != nil {
		log.Fatal(err)
	}
	s, err := server.New(server.Options{
		Config:   cfg,
		Renderer: renderer,
		Monsters: monsters.Router(memory.NewMonsterService(), renderer, nil),
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(s.Start(context.Background(), nil))
*/
package server
