// maidonoctl — инструмент командной строки Maidono: каталог actions,
// список включённых actions, история выполнений и тестовые webhook.
//
// Использование:
//
//	maidonoctl [--config FILE] [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	actions  Просмотр каталога, включение и выключение actions, план выполнения
//	runs     История выполнений и поток событий
//	test     Отправка тестового webhook
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/shaiso/Maidono/internal/cli"
	"github.com/shaiso/Maidono/internal/problem"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// .env не обязателен
	_ = godotenv.Load()

	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", problem.Detailed(err))
		os.Exit(1)
	}
}
