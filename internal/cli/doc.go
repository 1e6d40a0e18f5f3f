// Package cli реализует maidonoctl — утилиту управления Maidono.
//
// # Обзор
//
// Команды делятся на две группы:
//   - actions: работают с каталогом на диске (actions.dir и список
//     включённых actions), сервер для них не нужен
//   - runs, test: обращаются к запущенному серверу по HTTP
//     (api.url) или читают события из RabbitMQ (events.amqp_url)
//
// # Ключевые компоненты
//
// ## Options
//
// Общие флаги (--config, --api-url, --json, ...). Конфигурация
// загружается лениво, после разбора флагов.
//
// ## Client
//
// HTTP-клиент для read-only API сервера и отправки тестовых webhook.
//
//	client := cli.NewClient("http://localhost:4471")
//	runs, err := client.ListRuns(cli.ListRunsOpts{Limit: 10})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Текст и таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, ошибки — в stderr.
// Это позволяет использовать pipe: maidonoctl actions list --json | jq .
package cli
