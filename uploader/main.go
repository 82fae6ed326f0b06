package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:5000", "analysis server base URL")
		testMode  = flag.Bool("test", false, "use the test flow (150MB ceiling, no payment gate)")
		token     = flag.String("token", os.Getenv("UPLOAD_TOKEN"), "bearer token for the test flow")
		outDir    = flag.String("out", ".", "directory for the exported CSV")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: uploader [flags] <export.zip>")
	}

	flow := StandardFlow()
	if *testMode {
		flow = TestFlow(*token)
	}
	orchestrator := NewOrchestrator(*serverURL, flow)

	reason, err := orchestrator.SelectFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}
	switch reason {
	case RejectWrongExtension:
		log.Fatalf("Por favor, selecione um arquivo .zip")
	case RejectTooLarge:
		if contact := orchestrator.OversizedContact(); contact != "" {
			// Oversized accounts get the contact channel instead of an error
			fmt.Println("Ops, parece que você tem muitos seguidores, parabéns!!")
			fmt.Printf("Fale conosco para um atendimento especial: %s\n", contact)
			return
		}
		log.Fatalf("O arquivo é muito grande. Máximo 150MB na área de teste.")
	}

	candidate := orchestrator.Candidate()
	fmt.Printf("Enviando %s (%.2f MB)...\n", candidate.Name, float64(candidate.SizeBytes)/1024/1024)

	results, err := orchestrator.Submit(context.Background())
	if err != nil {
		log.Fatalf("Erro ao processar o arquivo. Tente novamente. (%v)", err)
	}

	fmt.Printf("%d pessoas não te seguem de volta\n", results.NotFollowingBack)

	if !orchestrator.ResultsReady() {
		// Simulated checkout: a fixed pause, then the gate flips
		fmt.Println("Processando pagamento...")
		time.Sleep(3 * time.Second)
		orchestrator.CompletePayment()
	}

	outPath, err := orchestrator.ExportCSV(*outDir)
	if err != nil {
		log.Fatalf("Falha ao exportar CSV: %v", err)
	}
	fmt.Printf("Lista exportada: %s\n", outPath)
}
