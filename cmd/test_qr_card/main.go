package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/notify"
	"github.com/Freeeeeet/smartclass/internal/service"
)

func main() {
	// Тестовое занятие на ближайший понедельник
	now := time.Now()
	class := service.ScheduleContext{
		ScheduleID: "test-schedule",
		Subject:    "Linear Algebra",
		Classroom:  "Room 101",
		Day:        "Monday",
		StartTime:  "10:00",
		EndTime:    "11:30",
	}
	code := &model.ClassQRCode{
		ID:         "test-qr",
		ScheduleID: class.ScheduleID,
		Payload:    fmt.Sprintf("CLASS:%s:%d", class.ScheduleID, now.UnixNano()),
		CreatedAt:  now,
		ExpiresAt:  now.Add(service.DefaultCredentialTTL),
	}

	// Рисуем карточку
	imageData, err := notify.RenderQRCard(code.Payload, class.Subject+" "+class.StartTime+"-"+class.EndTime)
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	filename := "qr_card.png"
	if err := os.WriteFile(filename, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	// Письмо целиком, чтобы проверить шаблон
	msg, err := notify.BuildMessage(code, service.Recipient{Name: "Dr. Smith", Email: "smith@example.com"}, class, imageData)
	if err != nil {
		fmt.Printf("Ошибка сборки письма: %v\n", err)
		os.Exit(1)
	}

	htmlFile := "qr_email.html"
	if err := os.WriteFile(htmlFile, []byte(msg.HTML), 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Карточка сохранена в %s, письмо в %s\n", filename, htmlFile)
	fmt.Printf("🔑 Код: %s\n", code.Payload)
	fmt.Printf("📧 Тема: %s\n", msg.Subject)
	fmt.Println()
	fmt.Print(msg.Text)
}
