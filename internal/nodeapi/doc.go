// Package nodeapi is the client side of the controller's DomoCAN node
// commands.
//
// Every operation is one HTTP GET against {base}/json.htm with
// type=command and a param naming the command:
//
//	domocangetnodes    hid
//	domocanaddnode     hid, name, devtype, dcanid
//	domocanupdatenode  hid, idx, name, devtype, dcanid
//	domocanremovenode  hid, idx
//	domocanclearnodes  hid
//
// The controller answers {"status":"OK"|"ERR", ...}. A list answer carries
// the nodes in "result", which is omitted when there are none. Column values
// may arrive as JSON strings or numbers; both decode.
//
// # Errors
//
// Failures are returned as *APIError. A status other than OK maps to a kind
// per command:
//
//	domocanaddnode                        KindValidation
//	domocanupdatenode, domocanremovenode  KindNotFound
//	domocangetnodes, domocanclearnodes    KindTransport
//
// Network errors and non-2xx answers are KindTransport. A body that is not
// a command response is KindParse, which callers report like a transport
// failure.
//
// # Usage Example
//
//	client := nodeapi.NewClientWithURL("http://192.168.1.10:8080")
//	nodes, err := client.List(3)
//	if err != nil {
//	    fmt.Println(nodeapi.ShortMessage(err))
//	    return
//	}
package nodeapi
