package assistant

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	ToolCreateTransaction = "create_transaction"
	ToolCreateRecurring   = "create_recurring"
	ToolListTransactions  = "list_transactions"
	ToolUpdateGroup       = "update_group"
	ToolDeleteGroup       = "delete_group"
	ToolCreateCategory    = "create_category"
	ToolListCategories    = "list_categories"
	ToolGetSettings       = "get_settings"
	ToolGetSummary        = "get_summary"
)

var (
	dateProp = jsonschema.Definition{Type: jsonschema.String, Description: "Date as YYYY-MM-DD"}
	typeProp = jsonschema.Definition{
		Type: jsonschema.String,
		Enum: []string{"expense", "income", "cc_payment"},
	}
	scopeProp = jsonschema.Definition{
		Type:        jsonschema.String,
		Enum:        []string{"all", "future"},
		Description: "all members, or only those dated on or after fromDate",
	}
)

func transactionProps() map[string]jsonschema.Definition {
	return map[string]jsonschema.Definition{
		"date":        dateProp,
		"amount":      {Type: jsonschema.Number, Description: "Positive amount in the account currency"},
		"description": {Type: jsonschema.String},
		"categoryId":  {Type: jsonschema.String, Description: "Id of an existing category, or \"fixed\""},
		"type":        typeProp,
	}
}

func tool(name, description string, params jsonschema.Definition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

// Tools lists every operation the planner may choose.
func Tools() []openai.Tool {
	recurring := transactionProps()
	recurring["months"] = jsonschema.Definition{Type: jsonschema.Integer, Description: "Number of monthly instances"}

	groupTarget := map[string]jsonschema.Definition{
		"groupId":  {Type: jsonschema.String},
		"scope":    scopeProp,
		"fromDate": dateProp,
	}
	groupUpdate := map[string]jsonschema.Definition{
		"updates": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"amount":      {Type: jsonschema.Number},
				"description": {Type: jsonschema.String},
				"categoryId":  {Type: jsonschema.String},
				"type":        typeProp,
			},
		},
	}
	for k, v := range groupTarget {
		groupUpdate[k] = v
	}

	return []openai.Tool{
		tool(ToolCreateTransaction, "Record a single expense, income or credit card payment.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: transactionProps(),
			Required:   []string{"amount", "description"},
		}),
		tool(ToolCreateRecurring, "Create a fixed monthly cost repeated for a number of months.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: recurring,
			Required:   []string{"amount", "description", "months"},
		}),
		tool(ToolListTransactions, "List transactions matching optional filters.", jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"startDate":  dateProp,
				"endDate":    dateProp,
				"categoryId": {Type: jsonschema.String},
				"type":       typeProp,
				"isFixed":    {Type: jsonschema.Boolean},
			},
		}),
		tool(ToolUpdateGroup, "Change every or every future instance of a recurring cost.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: groupUpdate,
			Required:   []string{"groupId", "updates"},
		}),
		tool(ToolDeleteGroup, "Delete every or every future instance of a recurring cost.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: groupTarget,
			Required:   []string{"groupId"},
		}),
		tool(ToolCreateCategory, "Create a spending category with a weekly or monthly budget.", jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"name":   {Type: jsonschema.String},
				"budget": {Type: jsonschema.Number},
				"period": {Type: jsonschema.String, Enum: []string{"weekly", "monthly"}},
				"color":  {Type: jsonschema.String, Description: "Hex color like #22C55E"},
			},
			Required: []string{"name", "budget"},
		}),
		tool(ToolListCategories, "List spending categories and their budgets.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{},
		}),
		tool(ToolGetSettings, "Read income, currency and reconciled balances.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{},
		}),
		tool(ToolGetSummary, "Budget position and projected balances as of a day.", jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{"date": dateProp},
		}),
	}
}
