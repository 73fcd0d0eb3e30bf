package handler

import (
	bookingshandler "foodshare-go/internal/transport/httpserver/handler/bookings"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	disheshandler "foodshare-go/internal/transport/httpserver/handler/dishes"
	identityhandler "foodshare-go/internal/transport/httpserver/handler/identity"
	messaginghandler "foodshare-go/internal/transport/httpserver/handler/messaging"
	notificationshandler "foodshare-go/internal/transport/httpserver/handler/notifications"
	uploadshandler "foodshare-go/internal/transport/httpserver/handler/uploads"
)

type Handlers struct {
	Common        *commonhandler.Handlers
	Identity      *identityhandler.Handlers
	Dishes        *disheshandler.Handlers
	Bookings      *bookingshandler.Handlers
	Messaging     *messaginghandler.Handlers
	Notifications *notificationshandler.Handlers
	Uploads       *uploadshandler.Handlers
}
