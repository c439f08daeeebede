// Package controller is an in-memory stand-in for the home-automation
// controller side of the DomoCAN node commands.
//
// It answers the same json.htm queries as the real controller
// (domocangetnodes, domocanaddnode, domocanupdatenode, domocanremovenode,
// domocanclearnodes and getversion) and keeps a node table per gateway
// hardware index. Its quirks follow the controller:
//
//   - adding a node identical to an existing one succeeds without a duplicate
//   - removing an unknown node succeeds
//   - node names are HTML-escaped before they are stored
//   - an empty node list is answered without a "result" member
//
// Updating an unknown node answers ERR so clients can report it as not found.
//
// The simulator backs the domocan-sim binary, the panel demo mode and the
// nodeapi client tests:
//
//	srv := controller.New(&controller.Config{Host: "127.0.0.1"}, nil)
//	if err := srv.Listen(); err != nil {
//	    return err
//	}
//	go srv.Serve()
//	client := nodeapi.NewClientWithURL(srv.BaseURL())
package controller
