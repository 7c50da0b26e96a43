// Package common implements the typed object proxies of the understudy
// driver on top of the channel protocol layer.
package common

const (
	// EventBrowserDisconnected is emitted when the connection to the
	// browser server is gone.
	EventBrowserDisconnected string = "disconnected"

	// EventContextPage is emitted when a new page is created in a context.
	EventContextPage string = "page"

	// EventContextClose is emitted when a browser context is closed.
	EventContextClose string = "close"

	// EventPageClose is emitted when a page is closed.
	EventPageClose string = "close"

	// EventPageCrash is emitted when a page crashes.
	EventPageCrash string = "crash"

	// EventPageConsole is emitted when a console message is added.
	EventPageConsole string = "console"

	// EventPagePopup is emitted when a popup is opened.
	EventPagePopup string = "popup"

	// EventFrameNavigated is emitted when a frame is navigated.
	EventFrameNavigated string = "navigated"
)
