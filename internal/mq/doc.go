// Package mq публикует события выполнений в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — exchange maidono.runs и очереди наблюдателей
//   - publisher.go  — публикация run.started / run.finished
//   - consumer.go   — чтение событий (maidonoctl runs watch)
//
// Публикация необязательна: без events.amqp_url сервер работает
// без брокера.
package mq
