// Package catalog читает описания actions с диска.
//
// Каталог — директория с YAML-файлами групп (deploy.yaml → группа
// "deploy"). Каждый файл содержит список actions:
//
//	- name: site
//	  on: POST /hooks/site
//	  from: github
//	  secret: s3cr3t
//	  before: deploy/build
//	  after: [notify/chat]
//	  run: |
//	    git pull
//	    make install
//
// Рядом хранится список включённых actions (enabled.go).
package catalog
