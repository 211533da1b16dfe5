// Package events публикует события жизненного цикла runs в RabbitMQ.
//
// Егресс-только: внешние потребители (боты уведомлений, дашборды)
// читают очереди, сам движок ничего не потребляет. При недоступности
// брокера демон работает в режиме без событий.
//
// Состав:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go — обменник и очереди событий
//   - publisher.go — публикация типизированных событий
//   - notifier.go — адаптер публикатора к flow.RunSink
package events
