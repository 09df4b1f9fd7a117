package api

import (
	"net"
	"net/http"

	"github.com/emicklei/go-restful"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

func (api *API) websocket(req *restful.Request, resp *restful.Response) {
	ws, err := upgrader.Upgrade(resp.ResponseWriter, req.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logrus.Errorf("Websocket upgrade failed: %v", err)
		return
	}
	wsClient := NewWebsocketClient(ws, uuid.New(), remoteIP(req.Request.RemoteAddr))

	if err := wsClient.WriteMessage(SnapshotMessage, EntryList{Items: api.prof.Snapshot()}); err != nil {
		logrus.Error(err)
		ws.Close()
		return
	}
	if !api.hub.Register(wsClient) {
		return
	}
	api.wsReader(wsClient)
}

// remoteIP strips the port from a host:port address, IPv6 included.
func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (api *API) wsConnections(req *restful.Request, resp *restful.Response) {
	resp.WriteEntity(api.hub.Connections())
}

func (api *API) wsReader(client *WebsocketClient) {
	defer client.Ws.Close()
	defer api.hub.Drop(client)
	client.Ws.SetReadLimit(512)

	for {
		_, msg, err := client.Ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.Debugf("Websocket %v closed: %v", client.ID, err)
			}
			break
		}
		if string(msg) == "ping" {
			if err = client.WriteText("pong"); err != nil {
				logrus.Error(err)
				break
			}
			logrus.Debugf("Received 'ping' signal from websocket id '%v'", client.ID)
		}
	}
}
