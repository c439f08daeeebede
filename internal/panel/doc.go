// Package panel implements the terminal node panel for DomoCAN gateways.
//
// The panel is a full-screen Bubble Tea program with two screens:
//   - Picker: browse the network for controllers (mDNS) or enter a URL by hand
//   - Nodes: list, select, add, update, delete and clear the nodes of one gateway
//
// The node screen does not own any behavior of its own. It hosts a
// nodes.ViewModel and implements the view model's collaborators (table,
// form, confirmation, notifications, action switches and busy indicator)
// on a shared surface that is copied into the bubbles components after
// every operation. View model calls run synchronously inside Update, so
// a single program never has two operations in flight.
//
// # Framework Components
//
//   - bubbles/table: the node table
//   - bubbles/textinput: name and DomoCAN ID fields, manual URL entry
//   - bubbles/list: discovered controllers with filtering
//   - bubbles/spinner: scan indicator
//   - bubbles/help: context-aware key help
//   - lipgloss: styling and layout
//
// # Usage Example
//
//	err := panel.Run(panel.Options{
//	    BaseURL:       "http://192.168.1.10:8080",
//	    HardwareIndex: 3,
//	    Logger:        logging.GetLogger(),
//	})
//
// Leaving BaseURL empty starts on the picker screen.
package panel
