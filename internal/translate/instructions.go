// SPDX-License-Identifier: MIT

package translate

import "strings"

const (
	fallbackAudioInstructions = "Speak naturally in {language}. Use proper pronunciation and intonation for {language}."

	fallbackTranslationInstructions = "You are a professional translator. Translate the user's text accurately and naturally. Translate the following text from {source_language} to {target_language}. Only return the translated text, nothing else:"
)

// audioInstructions tells the TTS model how to speak, phrased in the target
// language itself so the voice model picks up the right accent.
var audioInstructions = map[Language]string{
	English:    "Speak naturally in English. Use proper pronunciation and intonation for English.",
	Spanish:    "Habla de forma natural en español. Usa la pronunciación y entonación adecuadas para el español.",
	French:     "Parlez naturellement en français. Utilisez une prononciation et une intonation appropriées pour le français.",
	German:     "Sprechen Sie natürlich auf Deutsch. Verwenden Sie die richtige Aussprache und Intonation für Deutsch.",
	Italian:    "Parla naturalmente in italiano. Usa la pronuncia e l'intonazione appropriate per l'italiano.",
	Portuguese: "Fale naturalmente em português. Use a pronúncia e entonação adequadas para o português.",
	Russian:    "Говорите естественно по-русски. Используйте правильное произношение и интонацию для русского языка.",
	Chinese:    "用中文自然地说话。使用正确的中文发音和语调。",
	Japanese:   "日本語で自然に話してください。日本語の適切な発音とイントネーションを使用してください。",
	Korean:     "한국어로 자연스럽게 말하세요. 한국어의 적절한 발음과 억양을 사용하세요.",
	Arabic:     "تحدث بشكل طبيعي بالعربية. استخدم النطق والتنغيم المناسبين للعربية.",
	Dutch:      "Spreek natuurlijk in het Nederlands. Gebruik de juiste uitspraak en intonatie voor het Nederlands.",
	Polish:     "Mów naturalnie po polsku. Używaj odpowiedniej wymowy i intonacji dla języka polskiego.",
	Turkish:    "Türkçe'de doğal konuşun. Türkçe için uygun telaffuz ve tonlama kullanın.",
	Greek:      "Μιλήστε φυσικά στα ελληνικά. Χρησιμοποιήστε τη σωστή προφορά και τονισμό για τα ελληνικά.",
	Swedish:    "Tala naturligt på svenska. Använd rätt uttal och intonation för svenska.",
	Norwegian:  "Snakk naturlig på norsk. Bruk riktig uttale og intonasjon for norsk.",
	Danish:     "Tal naturligt på dansk. Brug korrekt udtale og intonation for dansk.",
	Finnish:    "Puhu luonnollisesti suomeksi. Käytä oikeaa ääntämistä ja intonaatiota suomen kielelle.",
	Czech:      "Mluvte přirozeně česky. Používejte správnou výslovnost a intonaci pro češtinu.",
	Hungarian:  "Beszéljen természetesen magyarul. Használja a megfelelő kiejtést és hangsúlyozást a magyarnak.",
	Romanian:   "Vorbește natural în română. Folosește pronunția și intonația corespunzătoare pentru română.",
	Hindi:      "हिन्दी में स्वाभाविक रूप से बोलें। हिन्दी के लिए उचित उच्चारण और स्वर का उपयोग करें।",
	Thai:       "พูดอย่างเป็นธรรมชาติในภาษาไทย ใช้การออกเสียงและน้ำเสียงที่เหมาะสมสำหรับภาษาไทย",
	Vietnamese: "Nói tự nhiên bằng tiếng Việt. Sử dụng cách phát âm và ngữ điệu phù hợp cho tiếng Việt.",
}

// translationInstructions is the translator system prompt, phrased in the
// target language.
var translationInstructions = map[Language]string{
	English:    "You are a professional translator. Translate the user's text accurately and naturally. Translate the following text from {source_language} to {target_language}. Only return the translated text, nothing else:",
	Spanish:    "Eres un traductor profesional. Traduce el texto del usuario de forma precisa y natural. Traduce el siguiente texto de {source_language} a {target_language}. Solo devuelve el texto traducido, nada más:",
	French:     "Vous êtes un traducteur professionnel. Traduisez le texte de l'utilisateur avec précision et naturellement. Traduisez le texte suivant de {source_language} vers {target_language}. Ne renvoyez que le texte traduit, rien d'autre :",
	German:     "Sie sind ein professioneller Übersetzer. Übersetzen Sie den Text des Benutzers genau und natürlich. Übersetzen Sie den folgenden Text von {source_language} nach {target_language}. Geben Sie nur den übersetzten Text zurück, nichts anderes:",
	Italian:    "Sei un traduttore professionista. Traduci il testo dell'utente in modo accurato e naturale. Traduci il seguente testo da {source_language} a {target_language}. Restituisci solo il testo tradotto, nient'altro:",
	Portuguese: "Você é um tradutor profissional. Traduza o texto do usuário com precisão e naturalidade. Traduza o seguinte texto de {source_language} para {target_language}. Retorne apenas o texto traduzido, nada mais:",
	Russian:    "Вы профессиональный переводчик. Переведите текст пользователя точно и естественно. Переведите следующий текст с {source_language} на {target_language}. Верните только переведенный текст, ничего больше:",
	Chinese:    "您是一位专业翻译。准确自然地翻译用户的文本。将以下文本从 {source_language} 翻译为 {target_language}。只返回翻译后的文本，不要其他内容：",
	Japanese:   "あなたはプロの翻訳者です。ユーザーのテキストを正確かつ自然に翻訳してください。次のテキストを {source_language} から {target_language} に翻訳してください。翻訳されたテキストのみを返してください。それ以外は何も返さないでください：",
	Korean:     "당신은 전문 번역가입니다. 사용자의 텍스트를 정확하고 자연스럽게 번역하세요. 다음 텍스트를 {source_language}에서 {target_language}로 번역하세요. 번역된 텍스트만 반환하고 다른 것은 반환하지 마세요:",
	Arabic:     "أنت مترجم محترف. ترجم نص المستخدم بدقة وبشكل طبيعي. ترجم النص التالي من {source_language} إلى {target_language}. أعد النص المترجم فقط، لا شيء آخر:",
	Dutch:      "Je bent een professionele vertaler. Vertaal de tekst van de gebruiker nauwkeurig en natuurlijk. Vertaal de volgende tekst van {source_language} naar {target_language}. Geef alleen de vertaalde tekst terug, niets anders:",
	Polish:     "Jesteś profesjonalnym tłumaczem. Przetłumacz tekst użytkownika dokładnie i naturalnie. Przetłumacz następujący tekst z {source_language} na {target_language}. Zwróć tylko przetłumaczony tekst, nic więcej:",
	Turkish:    "Profesyonel bir çevirmensiniz. Kullanıcının metnini doğru ve doğal bir şekilde çevirin. Aşağıdaki metni {source_language} dilinden {target_language} diline çevirin. Sadece çevrilmiş metni döndürün, başka bir şey döndürmeyin:",
	Greek:      "Είστε επαγγελματίας μεταφραστής. Μεταφράστε το κείμενο του χρήστη με ακρίβεια και φυσικότητα. Μεταφράστε το ακόλουθο κείμενο από {source_language} σε {target_language}. Επιστρέψτε μόνο το μεταφρασμένο κείμενο, τίποτα άλλο:",
	Swedish:    "Du är en professionell översättare. Översätt användarens text noggrant och naturligt. Översätt följande text från {source_language} till {target_language}. Returnera endast den översatta texten, inget annat:",
	Norwegian:  "Du er en profesjonell oversetter. Oversett brukerens tekst nøyaktig og naturlig. Oversett følgende tekst fra {source_language} til {target_language}. Returner bare den oversatte teksten, ingenting annet:",
	Danish:     "Du er en professionel oversætter. Oversæt brugerens tekst præcist og naturligt. Oversæt følgende tekst fra {source_language} til {target_language}. Returner kun den oversatte tekst, intet andet:",
	Finnish:    "Olet ammattimainen kääntäjä. Käännä käyttäjän teksti tarkasti ja luonnollisesti. Käännä seuraava teksti kielestä {source_language} kieleen {target_language}. Palauta vain käännetty teksti, ei mitään muuta:",
	Czech:      "Jste profesionální překladatel. Přeložte text uživatele přesně a přirozeně. Přeložte následující text z {source_language} do {target_language}. Vraťte pouze přeložený text, nic jiného:",
	Hungarian:  "Ön egy professzionális fordító. Fordítsa le a felhasználó szövegét pontosan és természetesen. Fordítsa le a következő szöveget {source_language} nyelvről {target_language} nyelvre. Csak a lefordított szöveget adja vissza, semmi mást:",
	Romanian:   "Ești un traducător profesionist. Tradu textul utilizatorului cu precizie și natural. Tradu următorul text din {source_language} în {target_language}. Returnează doar textul tradus, nimic altceva:",
	Hindi:      "आप एक पेशेवर अनुवादक हैं। उपयोगकर्ता के पाठ को सटीक और स्वाभाविक रूप से अनुवाद करें। निम्नलिखित पाठ को {source_language} से {target_language} में अनुवाद करें। केवल अनुवादित पाठ लौटाएं, और कुछ नहीं:",
	Thai:       "คุณเป็นนักแปลมืออาชีพ แปลข้อความของผู้ใช้อย่างถูกต้องและเป็นธรรมชาติ แปลข้อความต่อไปนี้จาก {source_language} เป็น {target_language} ส่งคืนเฉพาะข้อความที่แปลแล้ว ไม่มีอะไรอื่น:",
	Vietnamese: "Bạn là một dịch giả chuyên nghiệp. Dịch văn bản của người dùng một cách chính xác và tự nhiên. Dịch văn bản sau từ {source_language} sang {target_language}. Chỉ trả về văn bản đã dịch, không có gì khác:",
}

// AudioInstructions returns the TTS speaking instructions for a language
// given in any accepted spelling. Empty input yields empty instructions;
// unknown languages get the generic template with the name filled in.
func AudioInstructions(language string) string {
	if strings.TrimSpace(language) == "" {
		return ""
	}
	lang, known := Resolve(language)
	if known {
		if instr, ok := audioInstructions[lang]; ok {
			return instr
		}
	}
	return strings.ReplaceAll(fallbackAudioInstructions, "{language}", NativeName(lang))
}

// TranslationInstructions returns the translator system prompt for a
// source/target pair, phrased in the target language when it is known.
// Either side empty yields an empty prompt.
func TranslationInstructions(sourceLanguage, targetLanguage string) string {
	if strings.TrimSpace(sourceLanguage) == "" || strings.TrimSpace(targetLanguage) == "" {
		return ""
	}
	source, _ := Resolve(sourceLanguage)
	target, known := Resolve(targetLanguage)

	template := fallbackTranslationInstructions
	if known {
		if t, ok := translationInstructions[target]; ok {
			template = t
		}
	}
	return strings.NewReplacer(
		"{source_language}", NativeName(source),
		"{target_language}", NativeName(target),
	).Replace(template)
}
