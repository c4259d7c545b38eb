package enums

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationOrderCreated   NotificationType = "order_created"
	NotificationOrderConfirmed NotificationType = "order_confirmed"
	NotificationOrderShipped   NotificationType = "order_shipped"
	NotificationOrderDelivered NotificationType = "order_delivered"
	NotificationOrderCanceled  NotificationType = "order_canceled"
	NotificationOrderRefunded  NotificationType = "order_refunded"
	NotificationPaymentFailed  NotificationType = "payment_failed"
	NotificationLowStock       NotificationType = "low_stock"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
