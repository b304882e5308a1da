package consumers

import (
	"net/http"
	"strconv"

	"github.com/mediamux/mediamux/internal/api"
	"github.com/mediamux/mediamux/pkg/consumer"
)

func apiConsumers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := query.Get("id")

	// without id - return all consumers list
	if id == "" {
		mu.Lock()
		list := make(map[string]*consumer.Consumer, len(items))
		for cid, cons := range items {
			list[cid] = cons
		}
		mu.Unlock()

		api.ResponseJSON(w, list)
		return
	}

	cons := Get(id)
	if cons == nil {
		http.Error(w, "consumer not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		switch query.Get("info") {
		case "dump":
			data, err := cons.Dump()
			if err != nil {
				api.Error(w, err)
				return
			}
			api.Response(w, []byte(data), api.MimeJSON)
		case "stats":
			data, err := cons.GetStats()
			if err != nil {
				api.Error(w, err)
				return
			}
			api.Response(w, []byte(data), api.MimeJSON)
		default:
			api.ResponsePrettyJSON(w, cons)
		}

	case "POST":
		if err := apiCommand(cons, query.Get("cmd"), query); err != nil {
			api.Error(w, err)
			return
		}
		api.ResponseJSON(w, cons)

	case "DELETE":
		_ = cons.Close()
		api.Response(w, "OK", api.MimeText)

	default:
		http.Error(w, "", http.StatusBadRequest)
	}
}

func apiCommand(cons *consumer.Consumer, cmd string, query map[string][]string) error {
	get := func(name string) string {
		if v := query[name]; len(v) != 0 {
			return v[0]
		}
		return ""
	}

	switch cmd {
	case "pause":
		return cons.Pause()

	case "resume":
		return cons.Resume()

	case "keyframe":
		return cons.RequestKeyFrame()

	case "priority":
		n, err := strconv.Atoi(get("value"))
		if err != nil {
			return err
		}
		return cons.SetPriority(n)

	case "unsetpriority":
		return cons.UnsetPriority()

	case "layers":
		spatial, err := strconv.Atoi(get("spatial"))
		if err != nil {
			return err
		}
		layers := consumer.Layers{SpatialLayer: spatial}
		if s := get("temporal"); s != "" {
			temporal, err2 := strconv.Atoi(s)
			if err2 != nil {
				return err2
			}
			layers.TemporalLayer = &temporal
		}
		return cons.SetPreferredLayers(layers)

	case "trace":
		return cons.EnableTraceEvent(query["type"]...)

	default:
		return &consumer.ParameterError{Op: "api", Reason: "unknown cmd: " + cmd}
	}
}
