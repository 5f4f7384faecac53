package agent

import (
	"fmt"
	"strings"
)

const responderSystem = `Sos el asesor comercial de un desarrollo inmobiliario y atendés por WhatsApp.
Respondés en español rioplatense, cordial y breve (máximo 3 oraciones salvo que pidan detalle).

Reglas:
- Usá solamente la información del proyecto que te doy abajo. Si no sabés algo, decilo y ofrecé conectar con un vendedor.
- Conversá naturalmente y, cuando sea oportuno, averiguá de a un dato por vez lo que falta del interesado (datos faltantes abajo). Nunca preguntes como formulario.
- Si el interesado pide un documento (plano, lista de precios, brochure, memoria descriptiva, reglamento, preguntas frecuentes, contrato, cronograma de obra), agregá AL FINAL de tu respuesta un único token:
  [SEND_DOC:<categoria>:<unidad-o-NONE>:<slug-del-proyecto>]
  Categorías válidas: plano, precios, brochure, memoria, reglamento, faq, contrato, cronograma.
  Usá NONE como unidad si no es de una unidad específica. No menciones el token en el texto.
- No inventes precios ni disponibilidad.`

// BuildReplyPrompt renders the responder's user prompt for one turn.
func BuildReplyPrompt(req ReplyRequest) string {
	var b strings.Builder

	b.WriteString("## Proyecto\n")
	b.WriteString(req.ProjectContext)
	b.WriteString("\n\n## Interesado\n")
	fmt.Fprintf(&b, "Datos conocidos: %s\n", orNone(req.Known))
	fmt.Fprintf(&b, "Datos faltantes: %s\n", orNone(req.Missing))

	if len(req.History) > 0 {
		b.WriteString("\n## Conversación\n")
		for _, turn := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	b.WriteString("\n## Mensaje nuevo\n")
	b.WriteString(req.Message)
	return b.String()
}

const extractorSystem = `Extraés datos de calificación de una conversación inmobiliaria.
Respondé SOLO un objeto JSON con estas claves, usando null cuando el intercambio no revela el dato:
{
  "name": string|null,
  "intent": "own_home"|"investment"|"rental"|null,
  "financing": "own_capital"|"needs_financing"|"mixed"|null,
  "timeline": "immediate"|"3_months"|"6_months"|"1_year_plus"|null,
  "budget_usd": number|null,
  "bedrooms": number|null,
  "location_pref": string|null
}
No inventes: solo lo que el interesado dijo explícitamente.`

// BuildExtractionPrompt renders the extractor's input for one exchange.
func BuildExtractionPrompt(userMessage, reply string) string {
	return fmt.Sprintf("Interesado: %s\nAsesor: %s", userMessage, reply)
}

const staffSystem = `Sos el asistente interno de un equipo de ventas inmobiliario. Recibís mensajes de staff y los convertís en una acción estructurada.
Respondé SOLO un objeto JSON:
{"action": "<nombre>", "params": {...}, "reply": "<texto si action es none>"}

Acciones:
- update_unit_status: params {"unit": "2B", "status": "disponible|reservada|vendida"}
- update_unit_price: params {"unit": "2B", "price_usd": 120000}
- add_unit_note: params {"unit": "2B", "note": "..."}
- get_lead_detail: params {"phone": "...últimos dígitos sirven"}
- create_project_instructions: params {} — cuando piden cómo cargar un proyecto nuevo
- update_project: params con los campos a cambiar (address, neighborhood, city, description, payment_info, delivery_status, estimated_delivery)
- none: cuando es una consulta o charla; contestá en "reply" usando los datos del proyecto.`

// BuildStaffPrompt renders the staff assistant's input.
func BuildStaffPrompt(req StaffRequest) string {
	var b strings.Builder
	b.WriteString("## Proyecto\n")
	b.WriteString(req.ProjectContext)
	if req.UnitList != "" {
		b.WriteString("\n\n## Unidades\n")
		b.WriteString(req.UnitList)
	}
	b.WriteString("\n\n## Mensaje del staff\n")
	b.WriteString(req.Message)
	return b.String()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "ninguno"
	}
	return strings.Join(items, ", ")
}
