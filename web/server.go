package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sourcetool/mdlbrowser/vfs"
)

var ServerDirectory vfs.Directory

func StartServer(addr string, d vfs.Directory, webPath string) error {
	ServerDirectory = d

	r := mux.NewRouter()
	r.HandleFunc("/json/models", HandlerAjaxModels)
	r.HandleFunc("/json/models/{model}", HandlerAjaxModelInfo)
	r.HandleFunc("/json/models/{model}/lod/{lod}", HandlerAjaxModelLod)
	r.HandleFunc("/dump/models/{model}/gltf", HandlerDumpModelGltf)
	r.HandleFunc("/dump/models/{model}/obj", HandlerDumpModelObj)
	r.HandleFunc("/dump/models/{model}/fbx", HandlerDumpModelFbx)
	r.HandleFunc("/dump/models/{model}/info", HandlerDumpModelInfo)
	r.HandleFunc("/ws/status", HandlerWebsocketStatus)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath)))

	h := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, r))

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
