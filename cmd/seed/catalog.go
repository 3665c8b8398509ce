package main

// demoMovie 演示数据，时长保留 "1h 41min" 这种原始写法，入库前换算成分钟
type demoMovie struct {
	Title       string
	Description string
	Year        int
	Categories  []string
	Director    string
	Runtime     string
}

var demoCategories = []string{
	"Acción", "Thriller", "Comedia", "Adolescente", "Drama", "Biografía", "Música",
	"Ciencia ficción", "Aventura", "Neo-noir", "Terror", "Suspenso", "Misterio",
}

var demoMovies = []demoMovie{
	{
		Title:       "John Wick",
		Description: "Un exasesino busca venganza tras el asesinato de su perro, el último regalo de su difunta esposa.",
		Year:        2014,
		Categories:  []string{"Acción", "Thriller"},
		Director:    "Chad Stahelski",
		Runtime:     "1h 41min",
	},
	{
		Title:       "Mad Max: Fury Road",
		Description: "En un mundo postapocalíptico, Max y Furiosa luchan por la libertad en medio del desierto y la locura.",
		Year:        2015,
		Categories:  []string{"Acción", "Ciencia ficción", "Aventura"},
		Director:    "George Miller",
		Runtime:     "2h",
	},
	{
		Title:       "Superbad",
		Description: "Dos adolescentes intentan disfrutar su última fiesta antes de graduarse, con resultados caóticos y divertidos.",
		Year:        2007,
		Categories:  []string{"Comedia", "Adolescente"},
		Director:    "Greg Mottola",
		Runtime:     "1h 53min",
	},
	{
		Title:       "The Hangover",
		Description: "Un grupo de amigos se despierta en Las Vegas sin recordar nada de la noche anterior, y deben encontrar al novio desaparecido.",
		Year:        2009,
		Categories:  []string{"Comedia"},
		Director:    "Todd Phillips",
		Runtime:     "1h 40min",
	},
	{
		Title:       "The Pursuit of Happyness",
		Description: "Basada en una historia real, un padre lucha contra la pobreza mientras intenta darle un futuro mejor a su hijo.",
		Year:        2006,
		Categories:  []string{"Drama", "Biografía"},
		Director:    "Gabriele Muccino",
		Runtime:     "1h 57min",
	},
	{
		Title:       "Whiplash",
		Description: "Un joven baterista se enfrenta a un maestro implacable en su búsqueda de la perfección musical.",
		Year:        2014,
		Categories:  []string{"Drama", "Música"},
		Director:    "Damien Chazelle",
		Runtime:     "1h 47min",
	},
	{
		Title:       "Interstellar",
		Description: "Un grupo de astronautas viaja a través de un agujero de gusano en busca de un nuevo hogar para la humanidad.",
		Year:        2014,
		Categories:  []string{"Ciencia ficción", "Aventura", "Drama"},
		Director:    "Christopher Nolan",
		Runtime:     "2h 49min",
	},
	{
		Title:       "Blade Runner 2049",
		Description: "Un replicante descubre un secreto que podría cambiar el destino de la humanidad y de su propia especie.",
		Year:        2017,
		Categories:  []string{"Ciencia ficción", "Neo-noir"},
		Director:    "Denis Villeneuve",
		Runtime:     "2h 44min",
	},
	{
		Title:       "Get Out",
		Description: "Un joven afroamericano visita a los padres de su novia, pero pronto descubre una aterradora conspiración.",
		Year:        2017,
		Categories:  []string{"Terror", "Suspenso", "Misterio"},
		Director:    "Jordan Peele",
		Runtime:     "1h 44min",
	},
	{
		Title:       "Hereditary",
		Description: "Tras la muerte de su madre, una familia comienza a experimentar sucesos paranormales cada vez más perturbadores.",
		Year:        2018,
		Categories:  []string{"Terror", "Drama"},
		Director:    "Ari Aster",
		Runtime:     "2h 7min",
	},
}

// 标题 → 海报文件名，目录下没有 mapping.json 时使用
var posterFiles = map[string]string{
	"John Wick":                "john_wick.jpg",
	"Mad Max: Fury Road":       "mad_max_fury_road.jpg",
	"Superbad":                 "superbad.jpg",
	"The Hangover":             "the_hangover.jpg",
	"The Pursuit of Happyness": "the_pursuit_of_happyness.jpg",
	"Whiplash":                 "whiplash.jpg",
	"Interstellar":             "interstellar.jpg",
	"Blade Runner 2049":        "blade_runner_2049.jpg",
	"Get Out":                  "get_out.jpg",
	"Hereditary":               "hereditary.jpg",
}
