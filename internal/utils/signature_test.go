package utils

import "testing"

func TestSignAndVerifyHMAC(t *testing.T) {
	payload := "order_abc123|pay_def456"
	secret := "s3cr3t"

	signature := SignHMAC(payload, secret)
	if signature == "" {
		t.Fatal("пустая подпись")
	}

	if !VerifyHMAC(payload, secret, signature) {
		t.Fatal("собственная подпись не прошла проверку")
	}
}

func TestVerifyHMAC_TamperedPayload(t *testing.T) {
	secret := "s3cr3t"
	signature := SignHMAC("order_1|pay_1", secret)

	if VerifyHMAC("order_1|pay_2", secret, signature) {
		t.Fatal("подпись приняла изменённые данные")
	}
}

func TestVerifyHMAC_WrongSecret(t *testing.T) {
	signature := SignHMAC("order_1|pay_1", "s3cr3t")

	if VerifyHMAC("order_1|pay_1", "another", signature) {
		t.Fatal("подпись приняла чужой секрет")
	}
}

func TestVerifyHMAC_InvalidHex(t *testing.T) {
	if VerifyHMAC("order_1|pay_1", "s3cr3t", "не hex") {
		t.Fatal("подпись приняла мусор")
	}
}
