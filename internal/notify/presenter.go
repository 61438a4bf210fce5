package notify

import "github.com/gen2brain/beeep"

//go:generate mockgen -source=presenter.go -destination=mocks/mock_presenter.go -package=mocks

// Presenter delivers a notification to the user.
type Presenter interface {
	Present(title, message string) error
}

// DesktopPresenter shows native desktop notifications.
type DesktopPresenter struct{}

func (DesktopPresenter) Present(title, message string) error {
	return beeep.Notify(title, message, "")
}
