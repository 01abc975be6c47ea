package entity

import "fmt"

type Prompt struct {
	ID   string
	Text string
}

const contractPromptID = "multiversx_contract"

const contractPromptFormat = "This is a description for a new smart contract: %s.\n" +
	"This is a template for a smart contract from MultiversX blockchain: %s.\n" +
	"Use them to generate a new smart contract in %s.\n" +
	"Provide only the %s code."

// NewContractPrompt embeds the description and the reference template into the
// instruction sent upstream. language is used verbatim, as the caller wrote it.
func NewContractPrompt(description, template, language string) Prompt {
	return Prompt{
		ID:   contractPromptID,
		Text: fmt.Sprintf(contractPromptFormat, description, template, language, language),
	}
}
